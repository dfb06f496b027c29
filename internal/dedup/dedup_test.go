package dedup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFilter(t *testing.T) *Filter {
	t.Helper()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return New(filepath.Join(t.TempDir(), "processed.json"), 7, 15, log)
}

func TestIsDuplicateChecksAndRecords(t *testing.T) {
	f := testFilter(t)

	text := "Bundestag beschließt neues Gesetz zur Energiewende"

	assert.False(t, f.IsDuplicate(text, "100"), "first sighting must not be a duplicate")
	assert.True(t, f.IsDuplicate(text, "100"), "second sighting must be a duplicate")
}

func TestIsDuplicateMatchesByID(t *testing.T) {
	f := testFilter(t)

	assert.False(t, f.IsDuplicate("Original text of a long enough post", "42"))

	// Same source id behind edited text is still the same post.
	assert.True(t, f.IsDuplicate("Edited text of the very same post", "42"))
}

func TestIsDuplicateShortTextWithoutID(t *testing.T) {
	f := testFilter(t)

	// Too short to fingerprint, no id: always treated as new, nothing
	// recorded.
	assert.False(t, f.IsDuplicate("kurz", ""))
	assert.False(t, f.IsDuplicate("kurz", ""))

	_, err := os.Stat(f.path)
	assert.True(t, os.IsNotExist(err), "no record should have been written")
}

func TestIsDuplicateURLOnlyTextWithID(t *testing.T) {
	f := testFilter(t)

	// URL-only text is not fingerprintable but the id still anchors it.
	assert.False(t, f.IsDuplicate("https://example.com/some/long/path", "7"))
	assert.True(t, f.IsDuplicate("https://example.com/some/long/path", "7"))
}

func TestExpiry(t *testing.T) {
	f := testFilter(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return base }

	text := "Post that will age out of the duplicate store"
	require.False(t, f.IsDuplicate(text, ""))
	require.True(t, f.IsDuplicate(text, ""))

	// Six days later the record is still live.
	f.now = func() time.Time { return base.Add(6 * 24 * time.Hour) }
	assert.True(t, f.IsDuplicate(text, ""))

	// Past retention it is dropped and the post counts as new again.
	f.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	assert.False(t, f.IsDuplicate(text, ""))
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	f := testFilter(t)

	text := "Candidate that skipped the duplicate check entirely"
	f.MarkProcessed(text, "9")
	f.MarkProcessed(text, "9")

	records := f.load()
	assert.Len(t, records, 1)
	assert.True(t, f.IsDuplicate(text, "9"))
}

func TestBrokenStoreTreatedAsEmpty(t *testing.T) {
	f := testFilter(t)
	require.NoError(t, os.WriteFile(f.path, []byte("{not json"), 0600))

	text := "Readable candidate despite a corrupted record store"
	assert.False(t, f.IsDuplicate(text, ""))
	assert.True(t, f.IsDuplicate(text, ""), "store must be rewritten in working form")
}

func TestFingerprintIsStableAndExact(t *testing.T) {
	text := "Genau derselbe Text"

	assert.Equal(t, Fingerprint(text), Fingerprint(text))
	assert.NotEqual(t, Fingerprint(text), Fingerprint(text+" "), "no normalization: any byte change is a new fingerprint")
}
