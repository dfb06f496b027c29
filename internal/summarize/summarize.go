// Package summarize turns post content into satirical summaries via a
// generative-text provider.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/rabbitresearch/satirebot/internal/logging"
)

// Provider is a generative-text backend: model, system instruction and
// user content in, completion text out.
type Provider interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// Summarizer wraps a provider with the retry policy and the shared
// system instruction.
type Summarizer struct {
	provider Provider
	system   string
	retry    retrypolicy.RetryPolicy[string]
	log      logging.Logger
}

// New creates a summarizer. The retry policy is bounded exponential
// backoff: 2s base delay, doubling, three attempts total.
func New(provider Provider, systemInstruction string, log logging.Logger) *Summarizer {
	retry := retrypolicy.NewBuilder[string]().
		WithBackoff(2*time.Second, 8*time.Second).
		WithMaxRetries(2).
		Build()

	return &Summarizer{
		provider: provider,
		system:   systemInstruction,
		retry:    retry,
		log:      log,
	}
}

// Summarize generates a summary of text under the given instruction.
// It never fails the candidate: when all attempts are exhausted it
// returns a visibly marked placeholder so the pipeline can decide to
// continue or discard.
func (s *Summarizer) Summarize(ctx context.Context, model, instruction, text string) string {
	user := instruction + "\n\n" + text

	result, err := failsafe.With(s.retry).WithContext(ctx).Get(func() (string, error) {
		return s.provider.Complete(ctx, model, s.system, user)
	})
	if err != nil {
		s.log.WithError(err).Warn("summarization failed after all attempts")
		return fmt.Sprintf("[Zusammenfassung nicht möglich: %v]", err)
	}

	return strings.TrimSpace(result)
}

const imagePromptSystem = "Du bist ein Experte für die Erstellung von Bild-Prompts. " +
	"Erstelle einen kurzen, prägnanten Prompt (max. 60 Wörter) für ein Bildmodell, " +
	"der den Inhalt des Beitrags visuell darstellt. Der Prompt sollte satirisch, " +
	"überspitzt und visuell interessant sein. Verwende keine Hashtags oder @-Erwähnungen. " +
	"Antworte NUR mit dem Prompt, ohne Einleitung oder Erklärung."

// ImagePrompt asks the provider for a short image-generation prompt
// combining the post text and its summary. No retry here; a failure
// just means the candidate goes out without a generated image.
func (s *Summarizer) ImagePrompt(ctx context.Context, model, text, summary string) (string, error) {
	combined := text + "\n\n" + summary

	prompt, err := s.provider.Complete(ctx, model, imagePromptSystem, combined)
	if err != nil {
		return "", fmt.Errorf("failed to generate image prompt: %w", err)
	}

	return strings.TrimSpace(prompt), nil
}
