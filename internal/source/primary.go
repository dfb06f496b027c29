package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/rabbitresearch/satirebot/internal/auth"
	"github.com/rabbitresearch/satirebot/internal/browser"
	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/types"
)

// XAdapter is the primary source adapter. It drives a logged-in browser
// session against x.com profile pages and extracts posts from the DOM.
// The browser is started lazily on first use and reused for every
// account in the run; Close tears it down.
type XAdapter struct {
	headless bool
	auth     *auth.Manager
	filter   PreFilter
	log      logging.Logger

	mu         sync.Mutex
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// NewXAdapter creates the primary adapter. The session is not started
// until the first Fetch.
func NewXAdapter(authManager *auth.Manager, headless bool, filter PreFilter, log logging.Logger) *XAdapter {
	return &XAdapter{
		headless: headless,
		auth:     authManager,
		filter:   filter,
		log:      log,
	}
}

// Fetch navigates to the account's profile and extracts up to count
// original posts that clear the pre-filter, newest first.
func (a *XAdapter) Fetch(ctx context.Context, account string, count int) ([]types.Post, error) {
	browserCtx, err := a.session()
	if err != nil {
		return nil, err
	}

	// Per-call deadline on the shared session; cancelling it does not
	// tear down the browser.
	callCtx, cancel := context.WithTimeout(browserCtx, 3*time.Minute)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		callCtx, dcancel = context.WithDeadline(callCtx, deadline)
		defer dcancel()
	}

	if err := chromedp.Run(callCtx,
		chromedp.Navigate("https://x.com/"+account),
		chromedp.WaitVisible(xTweetArticle, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", account, err)
	}

	raw, err := a.extractPosts(callCtx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to extract posts: %w", err)
	}

	posts := make([]types.Post, 0, len(raw))
	for _, rp := range raw {
		post := a.normalize(rp, account)
		if !a.filter.Admit(post) {
			continue
		}
		posts = append(posts, post)
		if len(posts) >= count {
			break
		}
	}

	return posts, nil
}

// session lazily starts the shared logged-in browser.
func (a *XAdapter) session() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.browserCtx != nil {
		return a.browserCtx, nil
	}

	if !a.auth.IsAuthenticated() {
		return nil, fmt.Errorf("no valid x.com session, login required")
	}

	cookies, err := a.auth.Cookies()
	if err != nil {
		return nil, fmt.Errorf("failed to load session cookies: %w", err)
	}

	opts := browser.Options(a.headless)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := injectCookies(browserCtx, cookies); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to inject cookies: %w", err)
	}

	a.browserCtx = browserCtx
	a.cancels = []context.CancelFunc{browserCancel, allocCancel}
	a.log.Debug("primary source browser session started")

	return a.browserCtx, nil
}

// Close tears down the browser session if one was started.
func (a *XAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, cancel := range a.cancels {
		cancel()
	}
	a.cancels = nil
	a.browserCtx = nil
}

// injectCookies sets session cookies in the browser context.
func injectCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithSameSite(c.SameSite).
					Do(ctx)

				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// rawPost is the shape extracted from the DOM via JavaScript.
type rawPost struct {
	ID        string   `json:"id"`
	Author    string   `json:"author"`
	Content   string   `json:"content"`
	MediaURLs []string `json:"mediaUrls"`
	Timestamp string   `json:"timestamp"`
	Likes     string   `json:"likes"`
	Retweets  string   `json:"retweets"`
	Replies   string   `json:"replies"`
	Quotes    string   `json:"quotes"`
	IsReply   bool     `json:"isReply"`
	URL       string   `json:"url"`
}

// extractPosts scrolls the profile and extracts visible posts until
// enough candidates are collected.
func (a *XAdapter) extractPosts(ctx context.Context, count int) ([]rawPost, error) {
	var collected []rawPost
	seen := make(map[string]bool)
	scrollAttempts := 0
	maxScrollAttempts := count/5 + 3 // roughly 5 posts per viewport

	for len(collected) < count && scrollAttempts < maxScrollAttempts {
		var visible []rawPost
		if err := chromedp.Run(ctx, chromedp.Evaluate(extractJS, &visible)); err != nil {
			return nil, err
		}

		for _, rp := range visible {
			if rp.ID == "" || seen[rp.ID] {
				continue
			}
			seen[rp.ID] = true
			collected = append(collected, rp)
		}

		if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil)); err != nil {
			return nil, err
		}

		time.Sleep(time.Duration(500+scrollAttempts*100) * time.Millisecond)
		scrollAttempts++
	}

	return collected, nil
}

// normalize converts a raw DOM extraction into the common post record.
// The engagement total is always recomputed from its components here,
// never trusted from upstream.
func (a *XAdapter) normalize(rp rawPost, account string) types.Post {
	author := rp.Author
	if author == "" {
		author = account
	}

	url := rp.URL
	if url == "" && rp.ID != "" {
		url = fmt.Sprintf("https://twitter.com/%s/status/%s", author, rp.ID)
	}

	var date time.Time
	if rp.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, rp.Timestamp); err == nil {
			date = parsed
		}
	}

	likes := parseMetric(rp.Likes)
	retweets := parseMetric(rp.Retweets)
	replies := parseMetric(rp.Replies)
	quotes := parseMetric(rp.Quotes)

	return types.Post{
		ID:              rp.ID,
		Text:            rp.Content,
		Author:          author,
		URL:             url,
		Images:          rp.MediaURLs,
		Likes:           likes,
		Retweets:        retweets,
		Replies:         replies,
		Quotes:          quotes,
		EngagementTotal: likes + retweets + replies + quotes,
		Date:            date,
		IsReply:         rp.IsReply || strings.HasPrefix(strings.TrimSpace(rp.Content), "@"),
	}
}

// parseMetric converts abbreviated metric strings like "1.2K", "5.7M",
// or "1,423" to integers. Unparseable input counts as 0.
func parseMetric(s string) int {
	if s == "" {
		return 0
	}

	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	if strings.HasSuffix(strings.ToUpper(s), "K") {
		multiplier = 1000
		s = s[:len(s)-1]
	} else if strings.HasSuffix(strings.ToUpper(s), "M") {
		multiplier = 1000000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return int(value * multiplier)
}

// extractJS pulls post data out of the profile timeline. Media items
// expose either a direct image URL or a video poster; both count as
// image references, and absence of media is fine.
const extractJS = `
	(function() {
		const tweets = document.querySelectorAll('article[data-testid="tweet"]');
		const results = [];

		tweets.forEach(el => {
			try {
				const statusLink = el.querySelector('a[href*="/status/"]');
				const id = statusLink?.href?.match(/status\/(\d+)/)?.[1];
				if (!id) return;

				const userNameEl = el.querySelector('[data-testid="User-Name"]');
				let author = '';
				if (userNameEl) {
					const handleLink = userNameEl.querySelector('a[href^="/"]');
					if (handleLink) {
						author = handleLink.getAttribute('href')?.replace('/', '') || '';
					}
				}

				const tweetTextEl = el.querySelector('[data-testid="tweetText"]');
				const content = tweetTextEl?.textContent || '';

				const mediaUrls = [];
				const mediaEls = el.querySelectorAll('[data-testid="tweetPhoto"] img, [data-testid="videoPlayer"] video');
				mediaEls.forEach(m => {
					const src = m.src || m.poster;
					if (src) mediaUrls.push(src);
				});

				const timeEl = el.querySelector('time');
				const timestamp = timeEl?.getAttribute('datetime') || '';

				const getMetric = (testId) => {
					const metricEl = el.querySelector('[data-testid="' + testId + '"]');
					if (!metricEl) return '0';
					const ariaLabel = metricEl.getAttribute('aria-label');
					if (ariaLabel) {
						const match = ariaLabel.match(/^([\d,.]+[KkMm]?)/);
						return match ? match[1] : '0';
					}
					return metricEl.textContent?.trim() || '0';
				};

				const isReply = el.textContent?.includes('Replying to') || false;

				results.push({
					id,
					author,
					content,
					mediaUrls,
					timestamp,
					likes: getMetric('like'),
					retweets: getMetric('retweet'),
					replies: getMetric('reply'),
					quotes: '0',
					isReply,
					url: statusLink?.href || ''
				});
			} catch (e) {
				console.error('Error extracting tweet:', e);
			}
		});

		return results;
	})()
`
