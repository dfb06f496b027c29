// Package logging constructs the shared logrus logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logger type passed through the pipeline. The
// FieldLogger interface lets call sites hand down contextual entries
// created with WithField without caring about the concrete type.
type Logger = logrus.FieldLogger

// Fields aliases logrus.Fields for call-site brevity.
type Fields = logrus.Fields

// New creates a configured logger. Level comes from LOG_LEVEL
// (debug/info/warn/error), defaulting to info.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
