package types

import "time"

// Post is a normalized candidate post flowing through the pipeline.
// Both source adapters emit this shape; nothing downstream inspects
// upstream payload variants again.
type Post struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	Author          string    `json:"author"`
	URL             string    `json:"url"`
	Images          []string  `json:"images"`
	Likes           int       `json:"likes"`
	Retweets        int       `json:"retweets"`
	Replies         int       `json:"replies"`
	Quotes          int       `json:"quotes"`
	EngagementTotal int       `json:"engagement_total"`
	Date            time.Time `json:"date"`
	IsReply         bool      `json:"is_reply"`
}

// Engagement is the subset of metrics the scorer and tonality selector
// consume. Adapters always populate it; zero values mean "none observed".
type Engagement struct {
	Likes    int
	Retweets int
	Replies  int
	Quotes   int
	Total    int
}

// Metrics returns the post's engagement view.
func (p *Post) Metrics() Engagement {
	return Engagement{
		Likes:    p.Likes,
		Retweets: p.Retweets,
		Replies:  p.Replies,
		Quotes:   p.Quotes,
		Total:    p.EngagementTotal,
	}
}

// AccountConfig selects model and instruction presets for one account.
// Unknown keys silently resolve to "default" at lookup time.
type AccountConfig struct {
	Identifier  string
	Model       string
	Instruction string
}
