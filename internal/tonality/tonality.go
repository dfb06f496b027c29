// Package tonality maps post content to a presentation style by keyword
// category matching.
package tonality

import (
	"strings"

	"github.com/rabbitresearch/satirebot/internal/config"
	"github.com/rabbitresearch/satirebot/internal/types"
)

// Selector picks the summarization style for a candidate. Categories are
// evaluated in their declared order; the category with the strictly
// greatest keyword hit count wins and ties go to the first declared.
type Selector struct {
	categories             []config.Category
	defaultStyle           string
	controversialThreshold float64
}

// New creates a selector from the tonality configuration.
func New(cfg config.TonalityConfig) *Selector {
	return &Selector{
		categories:             cfg.Categories,
		defaultStyle:           cfg.DefaultStyle,
		controversialThreshold: cfg.ControversialThreshold,
	}
}

// SelectStyle returns the style key for the given text. When engagement
// is supplied and the reply-to-like ratio marks the post as
// controversial, the style escalates one step on the critical scale.
func (s *Selector) SelectStyle(text string, engagement *types.Engagement) string {
	category, hits := s.bestCategory(text)
	if hits == 0 {
		return s.defaultStyle
	}

	style := category.Style

	if engagement != nil && engagement.Likes > 0 {
		ratio := float64(engagement.Replies) / float64(engagement.Likes)
		if ratio > s.controversialThreshold {
			style = escalate(style)
		}
	}

	return style
}

// Categorize returns the name of the winning keyword category, or
// "default" when no category matches. Used to pick the image prompt
// template for a post.
func (s *Selector) Categorize(text string) string {
	category, hits := s.bestCategory(text)
	if hits == 0 {
		return "default"
	}
	return category.Name
}

func (s *Selector) bestCategory(text string) (config.Category, int) {
	lower := strings.ToLower(text)

	var best config.Category
	bestHits := 0

	for _, category := range s.categories {
		hits := 0
		for _, keyword := range category.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				hits++
			}
		}
		// Strictly greater: first-declared category keeps ties.
		if hits > bestHits {
			best = category
			bestHits = hits
		}
	}

	return best, bestHits
}

// escalate sharpens the style for controversial posts. Only these two
// transitions are defined; every other style is left unchanged.
func escalate(style string) string {
	switch style {
	case "neutral":
		return "kritisch"
	case "kritisch":
		return "sehr_kritisch"
	default:
		return style
	}
}
