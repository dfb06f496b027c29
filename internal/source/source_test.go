package source

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/types"
)

func testLogger() logging.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

type stubAdapter struct {
	posts []types.Post
	err   error

	calls     int
	lastCount int
}

func (s *stubAdapter) Fetch(_ context.Context, _ string, count int) ([]types.Post, error) {
	s.calls++
	s.lastCount = count
	return s.posts, s.err
}

func somePosts(n int) []types.Post {
	posts := make([]types.Post, n)
	for i := range posts {
		posts[i] = types.Post{
			ID:              fmt.Sprintf("%d", i+1),
			Text:            "Ein ausreichend langer Beitragstext für den Test",
			Likes:           20,
			EngagementTotal: 40,
		}
	}
	return posts
}

func TestFetcherPrefersPrimary(t *testing.T) {
	primary := &stubAdapter{posts: somePosts(3)}
	fallback := &stubAdapter{posts: somePosts(1)}
	f := NewFetcher(primary, fallback, testLogger())

	posts := f.Fetch(context.Background(), "acct1", 3)

	assert.Len(t, posts, 3)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback must stay untouched when primary succeeds")
}

func TestFetcherOverfetchesPrimary(t *testing.T) {
	primary := &stubAdapter{posts: somePosts(1)}
	f := NewFetcher(primary, &stubAdapter{}, testLogger())

	f.Fetch(context.Background(), "acct1", 3)
	assert.Equal(t, 15, primary.lastCount)

	f.Fetch(context.Background(), "acct1", 1)
	assert.Equal(t, 10, primary.lastCount, "over-fetch floor is 10")
}

func TestFetcherFallsBackOnPrimaryError(t *testing.T) {
	primary := &stubAdapter{err: fmt.Errorf("browser session lost")}
	fallback := &stubAdapter{posts: somePosts(2)}
	f := NewFetcher(primary, fallback, testLogger())

	posts := f.Fetch(context.Background(), "acct1", 3)

	assert.Len(t, posts, 2)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, 3, fallback.lastCount, "fallback gets the original desired count")
}

func TestFetcherFallsBackOnEmptyPrimary(t *testing.T) {
	primary := &stubAdapter{}
	fallback := &stubAdapter{posts: somePosts(1)}
	f := NewFetcher(primary, fallback, testLogger())

	posts := f.Fetch(context.Background(), "acct1", 3)

	assert.Len(t, posts, 1)
	assert.Equal(t, 1, fallback.calls)
}

func TestFetcherTotalFailureYieldsEmpty(t *testing.T) {
	primary := &stubAdapter{err: fmt.Errorf("down")}
	fallback := &stubAdapter{err: fmt.Errorf("also down")}
	f := NewFetcher(primary, fallback, testLogger())

	posts := f.Fetch(context.Background(), "acct1", 3)

	assert.Empty(t, posts)
}

func TestPreFilterAdmit(t *testing.T) {
	filter := PreFilter{MinEngagementTotal: 10, MinLikes: 5}

	good := types.Post{Text: "Normaler Beitrag", Likes: 6, EngagementTotal: 12}
	assert.True(t, filter.Admit(good))

	reply := good
	reply.IsReply = true
	assert.False(t, filter.Admit(reply))

	mention := good
	mention.Text = "@jemand Antwort auf etwas"
	assert.False(t, filter.Admit(mention))

	lowLikes := good
	lowLikes.Likes = 4
	assert.False(t, filter.Admit(lowLikes))

	lowTotal := good
	lowTotal.EngagementTotal = 9
	assert.False(t, filter.Admit(lowTotal))

	// Both thresholds are inclusive.
	boundary := types.Post{Text: "Grenzfall", Likes: 5, EngagementTotal: 10}
	assert.True(t, filter.Admit(boundary))
}
