package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMetric(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"0", 0},
		{"42", 42},
		{"1,423", 1423},
		{"1.2K", 1200},
		{"1.2k", 1200},
		{"5.7M", 5700000},
		{"3M", 3000000},
		{"garbage", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, parseMetric(tc.in), "parseMetric(%q)", tc.in)
	}
}

func TestNormalize(t *testing.T) {
	a := &XAdapter{}

	rp := rawPost{
		ID:        "1234567890",
		Author:    "scholz",
		Content:   "Heute im Bundestag: die Energiewende",
		Timestamp: "2025-01-15T10:30:00.000Z",
		Likes:     "1.2K",
		Retweets:  "150",
		Replies:   "45",
		Quotes:    "0",
	}

	post := a.normalize(rp, "fallback_account")

	assert.Equal(t, "scholz", post.Author)
	assert.Equal(t, "https://twitter.com/scholz/status/1234567890", post.URL)
	assert.Equal(t, 1200, post.Likes)
	assert.Equal(t, 150, post.Retweets)
	assert.Equal(t, 45, post.Replies)
	assert.Equal(t, 1395, post.EngagementTotal, "engagement total is always recomputed")
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), post.Date)
	assert.False(t, post.IsReply)
}

func TestNormalizeFallbacks(t *testing.T) {
	a := &XAdapter{}

	rp := rawPost{
		ID:      "99",
		Content: "@jemand schau mal",
	}

	post := a.normalize(rp, "acct1")

	assert.Equal(t, "acct1", post.Author, "missing author falls back to the account handle")
	assert.Equal(t, "https://twitter.com/acct1/status/99", post.URL)
	assert.True(t, post.IsReply, "leading mention marks the post as a reply")
	assert.True(t, post.Date.IsZero())
}
