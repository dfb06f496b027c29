package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rabbitresearch/satirebot/internal/types"
)

var testKeywords = []string{"analyse", "studie", "forschung"}

func TestScoreIsDeterministic(t *testing.T) {
	s := New(testKeywords, 0.3)
	engagement := &types.Engagement{Likes: 42, Retweets: 12, Replies: 7, Total: 61}
	text := "Neue Studie zur Inflation: was die Analyse wirklich zeigt?"

	first := s.Score(text, engagement)
	second := s.Score(text, engagement)

	assert.Equal(t, first, second)
}

func TestScoreStaysInBounds(t *testing.T) {
	s := New(testKeywords, 0.3)

	// Everything negative at once: URL-only, short, still >= 0.
	low := s.Score("http://x.io", nil)
	assert.GreaterOrEqual(t, low.Score, 0.0)

	// Everything positive at once: long keyword-rich question with big
	// engagement, still <= 1.
	text := strings.Repeat("Analyse Studie Forschung? ", 10)
	high := s.Score(text, &types.Engagement{Likes: 500, Retweets: 200, Replies: 100, Total: 800})
	assert.LessOrEqual(t, high.Score, 1.0)
	assert.Equal(t, 1.0, high.Score)
}

func TestScoreBaseline(t *testing.T) {
	s := New(testKeywords, 0.3)

	// 30..100 chars, no keywords, no engagement: exactly the base score.
	a := s.Score("Ein unauffälliger Beitrag mittlerer Länge ohne alles", nil)
	assert.InDelta(t, 0.5, a.Score, 1e-9)
	assert.Empty(t, a.Reasons)
}

func TestScoreTextRules(t *testing.T) {
	s := New(testKeywords, 0.3)

	short := s.Score("zu kurz", nil)
	assert.InDelta(t, 0.3, short.Score, 1e-9)
	assert.Contains(t, short.Reasons, "Text ist sehr kurz")

	long := s.Score(strings.Repeat("Wort ", 30), nil)
	assert.InDelta(t, 0.6, long.Score, 1e-9)

	// URL-only is short AND penalized for being a bare link.
	urlOnly := s.Score("https://example.com/a", nil)
	assert.InDelta(t, 0.0, urlOnly.Score, 1e-9)

	hashtags := s.Score("Beitrag mit Tags #a #b #c #d #e #f dabei!", nil)
	assert.InDelta(t, 0.4, hashtags.Score, 1e-9)
}

func TestScoreKeywordAndQuestionBonus(t *testing.T) {
	s := New(testKeywords, 0.3)

	a := s.Score("Was sagt die neue Studie? Eine Analyse folgt.", nil)
	// base 0.5 + 2 keywords + question
	assert.InDelta(t, 0.65, a.Score, 1e-9)
	assert.Contains(t, a.Reasons, "Enthält Qualitätsbegriff: analyse")
	assert.Contains(t, a.Reasons, "Enthält Qualitätsbegriff: studie")
	assert.Contains(t, a.Reasons, "Text enthält Frage/Diskussionsanregung")
}

func TestScoreEngagementTiers(t *testing.T) {
	s := New(nil, 0.3)
	text := "Ein unauffälliger Beitrag mittlerer Länge ohne alles"

	cases := []struct {
		name       string
		engagement types.Engagement
		want       float64
	}{
		{"below all tiers", types.Engagement{Likes: 4, Retweets: 2, Replies: 1, Total: 7}, 0.5},
		{"mid tiers", types.Engagement{Likes: 20, Retweets: 10, Replies: 5, Total: 35}, 0.75},
		{"top tiers", types.Engagement{Likes: 100, Retweets: 50, Replies: 20, Total: 200}, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := s.Score(text, &tc.engagement)
			assert.InDelta(t, tc.want, a.Score, 1e-9)
		})
	}
}

func TestScoreWithoutEngagement(t *testing.T) {
	s := New(nil, 0.3)
	text := "Ein unauffälliger Beitrag mittlerer Länge ohne alles"

	// nil engagement and zero engagement score identically except for
	// the tier bonuses, which zero counts never reach.
	withNil := s.Score(text, nil)
	withZero := s.Score(text, &types.Engagement{})
	assert.Equal(t, withNil.Score, withZero.Score)
}

func TestPasses(t *testing.T) {
	s := New(nil, 0.3)

	assert.True(t, s.Passes(Assessment{Score: 0.3}), "gate is inclusive")
	assert.True(t, s.Passes(Assessment{Score: 0.9}))
	assert.False(t, s.Passes(Assessment{Score: 0.29}))
}
