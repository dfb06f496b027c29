package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timelineFixture = `<!DOCTYPE html>
<html><body>
<div class="timeline">
  <div class="timeline-item">
    <a class="tweet-link" href="/scholz/status/1001#m"></a>
    <div class="tweet-body">
      <div class="tweet-content media-body">Die Regierung stellt das neue Energiegesetz vor und erntet Kritik</div>
      <div class="attachments">
        <a class="still-image" href="/pic/orig/media%2Fabc.jpg"><img src="/pic/media%2Fabc.jpg"></a>
      </div>
      <span class="tweet-date"><a href="/scholz/status/1001#m" title="Jan 15, 2025 · 10:30 AM UTC">Jan 15</a></span>
      <div class="tweet-stats">
        <span class="tweet-stat"><div class="icon-container"><span class="icon-comment"></span> 12</div></span>
        <span class="tweet-stat"><div class="icon-container"><span class="icon-retweet"></span> 34</div></span>
        <span class="tweet-stat"><div class="icon-container"><span class="icon-quote"></span> 3</div></span>
        <span class="tweet-stat"><div class="icon-container"><span class="icon-heart"></span> 1,250</div></span>
      </div>
    </div>
  </div>
  <div class="timeline-item">
    <a class="tweet-link" href="/scholz/status/1002#m"></a>
    <div class="tweet-content media-body">@kritiker Das sehe ich anders</div>
  </div>
  <div class="timeline-item">
    <a class="tweet-link" href="/scholz/status/1003#m"></a>
    <div class="tweet-content media-body">Beitrag mit kaputten Zahlen im Zählerfeld</div>
    <div class="tweet-stats">
      <span class="tweet-stat"><div class="icon-container"><span class="icon-heart"></span> &ndash;</div></span>
    </div>
  </div>
</div>
</body></html>`

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(timelineFixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMirrorFetchParsesTimeline(t *testing.T) {
	srv := fixtureServer(t)

	m := NewMirrorAdapter([]string{srv.URL}, PreFilter{MinEngagementTotal: 10, MinLikes: 5}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	require.Len(t, posts, 1, "reply and under-threshold posts are filtered")

	post := posts[0]
	assert.Equal(t, "1001", post.ID)
	assert.Equal(t, "scholz", post.Author)
	assert.Equal(t, srv.URL+"/scholz/status/1001#m", post.URL)
	assert.Equal(t, "Die Regierung stellt das neue Energiegesetz vor und erntet Kritik", post.Text)
	assert.Equal(t, []string{srv.URL + "/pic/media%2Fabc.jpg"}, post.Images)
	assert.Equal(t, 1250, post.Likes)
	assert.Equal(t, 34, post.Retweets)
	assert.Equal(t, 12, post.Replies)
	assert.Equal(t, 3, post.Quotes)
	assert.Equal(t, 1299, post.EngagementTotal)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), post.Date)
}

func TestMirrorUnparseableStatsCountAsZero(t *testing.T) {
	srv := fixtureServer(t)

	m := NewMirrorAdapter([]string{srv.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	require.Len(t, posts, 2, "reply is always dropped, everything else passes the zero filter")

	broken := posts[1]
	assert.Equal(t, "1003", broken.ID)
	assert.Zero(t, broken.Likes)
	assert.Zero(t, broken.EngagementTotal)
}

func TestMirrorStopsAtRequestedCount(t *testing.T) {
	srv := fixtureServer(t)

	m := NewMirrorAdapter([]string{srv.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, "1001", posts[0].ID)
}

func TestMirrorAbbreviatedStatCounts(t *testing.T) {
	const page = `<html><body>
	<div class="timeline-item">
	  <a class="tweet-link" href="/scholz/status/2001#m"></a>
	  <div class="tweet-content media-body">Beitrag mit abgekürzten Zählerständen im Statistikfeld</div>
	  <div class="tweet-stats">
	    <span class="tweet-stat"><div class="icon-container"><span class="icon-heart"></span> 1.2K</div></span>
	    <span class="tweet-stat"><div class="icon-container"><span class="icon-retweet"></span> 3M</div></span>
	  </div>
	</div>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	m := NewMirrorAdapter([]string{srv.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, 1200, posts[0].Likes)
	assert.Equal(t, 3000000, posts[0].Retweets)
}

func TestMirrorEmptyParseFallsThroughToNextInstance(t *testing.T) {
	// Only a reply on the first instance: it parses fine but yields no
	// qualifying posts, so the next instance gets its turn.
	const stale = `<html><body>
	<div class="timeline-item">
	  <a class="tweet-link" href="/scholz/status/3001#m"></a>
	  <div class="tweet-content media-body">@jemand nur eine Antwort</div>
	</div>
	</body></html>`

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(stale))
	}))
	t.Cleanup(empty.Close)
	working := fixtureServer(t)

	m := NewMirrorAdapter([]string{empty.URL, working.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestMirrorRateLimitSkipsToNextInstance(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(limited.Close)
	working := fixtureServer(t)

	m := NewMirrorAdapter([]string{limited.URL, working.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestMirrorErrorStatusSkipsToNextInstance(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)
	working := fixtureServer(t)

	m := NewMirrorAdapter([]string{broken.URL, working.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestMirrorFollowsRedirectOnce(t *testing.T) {
	target := fixtureServer(t)
	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+r.URL.Path, http.StatusFound)
	}))
	t.Cleanup(redirecting.Close)

	m := NewMirrorAdapter([]string{redirecting.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestMirrorNeverFollowsSecondRedirect(t *testing.T) {
	elsewhere := fixtureServer(t)
	middle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, elsewhere.URL+r.URL.Path, http.StatusFound)
	}))
	t.Cleanup(middle.Close)
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, middle.URL+r.URL.Path, http.StatusFound)
	}))
	t.Cleanup(first.Close)

	m := NewMirrorAdapter([]string{first.URL}, PreFilter{}, testLogger())
	posts, err := m.Fetch(context.Background(), "scholz", 3)
	require.NoError(t, err)
	assert.Empty(t, posts, "a redirect chain marks the instance as unusable")
}
