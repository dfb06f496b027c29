// Package imagegen generates illustration images for posts that carry
// no media of their own.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rabbitresearch/satirebot/internal/config"
	"github.com/rabbitresearch/satirebot/internal/logging"
)

const imagesURL = "https://api.openai.com/v1/images/generations"

// maxPromptLength is the hard cap the images API accepts.
const maxPromptLength = 1000

// Generator renders prompts through the images API. When the feature is
// disabled by config, Generate is a no-op returning an empty URL.
type Generator struct {
	apiKey string
	cfg    config.ImageConfig
	prompt func(topic string) string
	client *http.Client
	log    logging.Logger
}

// New creates a generator. promptFor resolves a topic to its prompt
// template; templates embed the post text via a "{text}" placeholder.
func New(apiKey string, cfg config.ImageConfig, promptFor func(topic string) string, log logging.Logger) *Generator {
	return &Generator{
		apiKey: apiKey,
		cfg:    cfg,
		prompt: promptFor,
		client: &http.Client{
			Timeout: 120 * time.Second, // image generation is slow
		},
		log: log,
	}
}

// Enabled reports whether image generation is turned on.
func (g *Generator) Enabled() bool {
	return !g.cfg.Disabled && g.apiKey != ""
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate renders one image for the given text under the topic's
// prompt template and returns its URL.
func (g *Generator) Generate(ctx context.Context, text, topic string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}

	prompt := buildPrompt(g.prompt(topic), text)

	reqBody := imageRequest{
		Model:   g.cfg.Model,
		Prompt:  prompt,
		N:       1,
		Size:    g.cfg.Size,
		Quality: g.cfg.Quality,
		Style:   g.cfg.Style,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, imagesURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call images API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("images API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse images response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("images API error: %s - %s", parsed.Error.Type, parsed.Error.Message)
	}

	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("images API returned no image")
	}

	g.log.WithField("topic", topic).Debug("generated image")
	return parsed.Data[0].URL, nil
}

// buildPrompt fills the template's {text} placeholder and enforces the
// API's prompt length cap, truncating with a visible ellipsis.
func buildPrompt(template, text string) string {
	prompt := strings.ReplaceAll(template, "{text}", text)

	if runes := []rune(prompt); len(runes) > maxPromptLength {
		prompt = string(runes[:maxPromptLength-3]) + "..."
	}
	return prompt
}
