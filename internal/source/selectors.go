package source

// X.com and Nitter DOM selectors.
// Isolated here because both change their markup from time to time;
// update these when extraction breaks.

// X.com profile page
const (
	xTweetArticle = `article[data-testid="tweet"]`
)

// Nitter timeline markup
const (
	nitterItemClass    = "timeline-item"
	nitterLinkClass    = "tweet-link"
	nitterContentClass = "tweet-content"
	nitterImageClass   = "still-image"
	nitterStatsClass   = "tweet-stats"
	nitterDateClass    = "tweet-date"

	nitterHeartIcon   = "icon-heart"
	nitterRetweetIcon = "icon-retweet"
	nitterCommentIcon = "icon-comment"
	nitterQuoteIcon   = "icon-quote"
)
