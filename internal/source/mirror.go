package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/types"
)

// MirrorAdapter is the fallback source adapter. It walks a configured
// ordered list of public mirror instances and parses the account's
// timeline page markup directly.
type MirrorAdapter struct {
	instances []string
	filter    PreFilter
	client    *http.Client
	log       logging.Logger
}

// NewMirrorAdapter creates the fallback adapter over the given mirror
// base URLs.
func NewMirrorAdapter(instances []string, filter PreFilter, log logging.Logger) *MirrorAdapter {
	return &MirrorAdapter{
		instances: instances,
		filter:    filter,
		client: &http.Client{
			Timeout: 10 * time.Second,
			// Redirects are followed manually, one hop at most.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}

// Fetch tries each configured instance in order until one yields posts.
// Rate limits and errors skip to the next instance; redirects are
// followed exactly once per target. No instance working is a normal
// outcome and returns an empty slice.
func (m *MirrorAdapter) Fetch(ctx context.Context, account string, count int) ([]types.Post, error) {
	visited := make(map[string]bool)

	for _, base := range m.instances {
		pageURL := strings.TrimRight(base, "/") + "/" + account

		posts, err := m.fetchPage(ctx, pageURL, account, count, visited)
		if err != nil {
			m.log.WithError(err).WithField("instance", base).Debug("mirror instance failed")
			continue
		}
		// A page that parses cleanly but yields nothing also falls
		// through to the next instance: mirrors serve stale or empty
		// timelines for accounts they have stopped syncing.
		if posts != nil {
			return posts, nil
		}
	}

	m.log.WithField("account", account).Info("no working mirror instance found")
	return nil, nil
}

// fetchPage requests one mirror page. A nil, nil return means "skip to
// the next instance".
func (m *MirrorAdapter) fetchPage(ctx context.Context, pageURL, account string, count int, visited map[string]bool) ([]types.Post, error) {
	resp, err := m.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		location := resp.Header.Get("Location")
		if location == "" || visited[location] {
			return nil, nil
		}
		visited[location] = true
		m.log.WithFields(logging.Fields{"from": pageURL, "to": location}).Debug("following mirror redirect once")

		redirResp, err := m.get(ctx, location)
		if err != nil {
			return nil, err
		}
		defer redirResp.Body.Close()

		// Never chase a second redirect from the same target.
		if redirResp.StatusCode != http.StatusOK {
			return nil, nil
		}
		return m.parseTimeline(redirResp.Body, location, account, count)

	case resp.StatusCode == http.StatusTooManyRequests:
		m.log.WithField("url", pageURL).Debug("mirror rate limited, trying next instance")
		return nil, nil

	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("mirror returned status %d", resp.StatusCode)
	}

	return m.parseTimeline(resp.Body, pageURL, account, count)
}

func (m *MirrorAdapter) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; satirebot/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	return m.client.Do(req)
}

// parseTimeline extracts qualifying posts from a mirror timeline page.
// It scans a bounded number of item containers to allow for pre-filter
// attrition and stops once count qualifying items are collected.
func (m *MirrorAdapter) parseTimeline(body io.Reader, pageURL, account string, count int) ([]types.Post, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mirror markup: %w", err)
	}

	origin := pageOrigin(pageURL)

	containers := findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && hasClass(n, nitterItemClass)
	})

	maxContainers := count * 3
	if len(containers) < maxContainers {
		maxContainers = len(containers)
	}

	var posts []types.Post
	for _, container := range containers[:maxContainers] {
		post, ok := m.parseItem(container, origin, account)
		if !ok || !m.filter.Admit(post) {
			continue
		}

		posts = append(posts, post)
		if len(posts) >= count {
			break
		}
	}

	return posts, nil
}

// parseItem extracts a single post from one timeline container.
func (m *MirrorAdapter) parseItem(container *html.Node, origin, account string) (types.Post, bool) {
	post := types.Post{Author: account}

	if link := findFirst(container, byClass("a", nitterLinkClass)); link != nil {
		href := attrVal(link, "href")
		post.ID = statusID(href)
		post.URL = absolutize(href, origin)
	}
	if post.URL == "" && post.ID != "" {
		post.URL = fmt.Sprintf("https://twitter.com/%s/status/%s", account, post.ID)
	}

	content := findFirst(container, byClass("div", nitterContentClass))
	if content == nil {
		return types.Post{}, false
	}
	post.Text = strings.TrimSpace(textContent(content))
	if post.Text == "" {
		return types.Post{}, false
	}
	// Replies never enter the pipeline.
	if strings.HasPrefix(post.Text, "@") {
		return types.Post{}, false
	}

	for _, img := range findAll(container, byClass("a", nitterImageClass)) {
		if imgTag := findFirst(img, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "img"
		}); imgTag != nil {
			if src := attrVal(imgTag, "src"); src != "" {
				post.Images = append(post.Images, absolutize(src, origin))
			}
		}
	}

	if stats := findFirst(container, byClass("div", nitterStatsClass)); stats != nil {
		post.Likes = statValue(stats, nitterHeartIcon)
		post.Retweets = statValue(stats, nitterRetweetIcon)
		post.Replies = statValue(stats, nitterCommentIcon)
		post.Quotes = statValue(stats, nitterQuoteIcon)
	}
	post.EngagementTotal = post.Likes + post.Retweets + post.Replies + post.Quotes

	if dateSpan := findFirst(container, byClass("span", nitterDateClass)); dateSpan != nil {
		if link := findFirst(dateSpan, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "a"
		}); link != nil {
			if parsed, err := time.Parse("Jan 2, 2006 · 3:04 PM UTC", attrVal(link, "title")); err == nil {
				post.Date = parsed
			}
		}
	}

	return post, true
}

// statValue parses the engagement count adjacent to an icon span, in
// the same abbreviated forms the primary adapter sees ("1,423",
// "1.2K"). Unparseable UI text counts as 0, never an error.
func statValue(stats *html.Node, iconClass string) int {
	icon := findFirst(stats, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "span" && hasClass(n, iconClass)
	})
	if icon == nil || icon.Parent == nil {
		return 0
	}

	value := parseMetric(strings.TrimSpace(textContent(icon.Parent)))
	if value < 0 {
		return 0
	}
	return value
}

// statusID extracts the numeric status id from a permalink path,
// dropping any fragment the mirror appends.
func statusID(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.TrimRight(u.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// pageOrigin returns scheme://host of the page actually fetched, used
// to absolutize relative mirror links.
func pageOrigin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func absolutize(href, origin string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") && origin != "" {
		return origin + href
	}
	return href
}

// --- minimal x/net/html traversal helpers ---

func byClass(tag, class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag && hasClass(n, class)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var matches []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if pred(node) {
			matches = append(matches, node)
			return // don't descend into matched containers
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return matches
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
