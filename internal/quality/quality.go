// Package quality scores candidate posts for publication worthiness.
package quality

import (
	"fmt"
	"strings"

	"github.com/rabbitresearch/satirebot/internal/types"
)

// Scorer computes a deterministic quality score for a post text.
// Scoring is a pure function of its inputs: no I/O, no randomness.
type Scorer struct {
	keywords  []string
	threshold float64
}

// Assessment is the result of scoring one candidate. It is recomputed
// on every call and never persisted.
type Assessment struct {
	Score   float64
	Reasons []string
}

// New creates a scorer with the given quality keywords and gate threshold.
func New(keywords []string, threshold float64) *Scorer {
	return &Scorer{keywords: keywords, threshold: threshold}
}

// Passes reports whether the assessment clears the configured gate.
func (s *Scorer) Passes(a Assessment) bool {
	return a.Score >= s.threshold
}

// Score rates a post text, optionally weighing engagement metrics.
// Every applied rule is additive on a 0.5 base and appends a
// human-readable reason; the final score is clamped to [0, 1].
func (s *Scorer) Score(text string, engagement *types.Engagement) Assessment {
	score := 0.5
	var reasons []string

	if len(text) < 30 {
		score -= 0.2
		reasons = append(reasons, "Text ist sehr kurz")
	} else if len(text) > 100 {
		score += 0.1
		reasons = append(reasons, "Text hat gute Länge")
	}

	if strings.HasPrefix(text, "http") {
		score -= 0.3
		reasons = append(reasons, "Text enthält nur URL")
	}

	if hashtags := strings.Count(text, "#"); hashtags > 5 {
		score -= 0.1
		reasons = append(reasons, fmt.Sprintf("Text enthält viele Hashtags (%d)", hashtags))
	}

	lower := strings.ToLower(text)
	for _, keyword := range s.keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			score += 0.05
			reasons = append(reasons, "Enthält Qualitätsbegriff: "+keyword)
		}
	}

	if strings.Contains(text, "?") {
		score += 0.05
		reasons = append(reasons, "Text enthält Frage/Diskussionsanregung")
	}

	if engagement != nil {
		if engagement.Likes >= 100 {
			score += 0.2
			reasons = append(reasons, fmt.Sprintf("Hohe Anzahl an Likes: %d", engagement.Likes))
		} else if engagement.Likes >= 20 {
			score += 0.1
			reasons = append(reasons, fmt.Sprintf("Gute Anzahl an Likes: %d", engagement.Likes))
		}

		if engagement.Retweets >= 50 {
			score += 0.2
			reasons = append(reasons, fmt.Sprintf("Hohe Anzahl an Retweets: %d", engagement.Retweets))
		} else if engagement.Retweets >= 10 {
			score += 0.1
			reasons = append(reasons, fmt.Sprintf("Gute Anzahl an Retweets: %d", engagement.Retweets))
		}

		if engagement.Replies >= 20 {
			score += 0.15
			reasons = append(reasons, fmt.Sprintf("Hohe Anzahl an Kommentaren: %d", engagement.Replies))
		} else if engagement.Replies >= 5 {
			score += 0.05
			reasons = append(reasons, fmt.Sprintf("Gute Anzahl an Kommentaren: %d", engagement.Replies))
		}

		if engagement.Total >= 200 {
			score += 0.1
			reasons = append(reasons, fmt.Sprintf("Sehr hohes Gesamtengagement: %d", engagement.Total))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return Assessment{Score: score, Reasons: reasons}
}
