package imagegen

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/rabbitresearch/satirebot/internal/config"
)

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("Erstelle ein Bild zu: '{text}'.", "die Energiewende")
	assert.Equal(t, "Erstelle ein Bild zu: 'die Energiewende'.", got)
}

func TestBuildPromptEnforcesLengthCap(t *testing.T) {
	got := buildPrompt("{text}", strings.Repeat("ü", 1500))

	assert.Equal(t, maxPromptLength, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestEnabled(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	promptFor := func(string) string { return "{text}" }

	on := New("key", config.ImageConfig{}, promptFor, log)
	assert.True(t, on.Enabled())

	disabled := New("key", config.ImageConfig{Disabled: true}, promptFor, log)
	assert.False(t, disabled.Enabled())

	keyless := New("", config.ImageConfig{}, promptFor, log)
	assert.False(t, keyless.Enabled())
}

func TestGenerateWhenDisabledIsNoop(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	g := New("", config.ImageConfig{Disabled: true}, func(string) string { return "{text}" }, log)

	url, err := g.Generate(context.Background(), "Text", "politik")
	assert.NoError(t, err)
	assert.Empty(t, url)
}
