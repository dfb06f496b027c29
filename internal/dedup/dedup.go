// Package dedup keeps a persistent record of already-published content
// and answers duplicate checks against it.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rabbitresearch/satirebot/internal/logging"
)

// Record is one persisted duplicate-store entry. A fingerprint is either
// absent or present with its original timestamp; entries are never
// updated in place.
type Record struct {
	Timestamp float64 `json:"timestamp"`
	Preview   string  `json:"preview"`
	ID        string  `json:"id,omitempty"`
}

// Filter checks candidate texts against the duplicate record store.
// The store is a single JSON object on disk, read fully on every check
// and rewritten fully on every new entry.
type Filter struct {
	path          string
	retentionDays int
	minTextLength int
	log           logging.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

// New creates a filter backed by the JSON store at path.
func New(path string, retentionDays, minTextLength int, log logging.Logger) *Filter {
	return &Filter{
		path:          path,
		retentionDays: retentionDays,
		minTextLength: minTextLength,
		log:           log,
		now:           time.Now,
	}
}

// IsDuplicate reports whether the text (or its source id) has already
// been processed. When it has not, the fingerprint is recorded
// immediately: check-and-record is one logical operation so the
// at-most-once-publish invariant holds even if callers race.
//
// Text that is too short or URL-only cannot be fingerprinted reliably;
// without an id the filter reports "not a duplicate" rather than risk
// suppressing a real item, and records nothing.
func (f *Filter) IsDuplicate(text, id string) bool {
	if !f.fingerprintable(text) && id == "" {
		f.log.WithField("preview", preview(text)).Debug("text not fingerprintable and no id, treating as new")
		return false
	}

	records := f.load()

	fp := Fingerprint(text)
	if _, ok := records[fp]; ok {
		f.log.WithField("preview", preview(text)).Info("duplicate detected (fingerprint match)")
		return true
	}

	if id != "" {
		for _, r := range records {
			if r.ID == id {
				f.log.WithField("id", id).Info("duplicate detected (id match)")
				return true
			}
		}
	}

	records[fp] = Record{
		Timestamp: float64(f.now().Unix()),
		Preview:   preview(text),
		ID:        id,
	}
	f.save(records)

	return false
}

// MarkProcessed commits a published candidate to the record store. The
// entry normally exists already from the IsDuplicate check; this keeps
// the store consistent when the check path was bypassed.
func (f *Filter) MarkProcessed(text, id string) {
	records := f.load()

	fp := Fingerprint(text)
	if _, ok := records[fp]; ok {
		return
	}

	records[fp] = Record{
		Timestamp: float64(f.now().Unix()),
		Preview:   preview(text),
		ID:        id,
	}
	f.save(records)
}

// Fingerprint derives the stable content hash for a text: MD5 over the
// exact UTF-8 bytes, no normalization.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (f *Filter) fingerprintable(text string) bool {
	return len(text) >= f.minTextLength && !strings.HasPrefix(text, "http")
}

// load reads the store and drops expired entries. A missing or broken
// store is an empty one; the run must not fail because the cache is
// unavailable.
func (f *Filter) load() map[string]Record {
	records := make(map[string]Record)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.WithError(err).Warn("failed to read duplicate store, proceeding with empty view")
		}
		return records
	}

	if err := json.Unmarshal(data, &records); err != nil {
		f.log.WithError(err).Warn("duplicate store unreadable, proceeding with empty view")
		return make(map[string]Record)
	}

	cutoff := float64(f.now().Unix()) - float64(f.retentionDays)*86400
	for fp, r := range records {
		if r.Timestamp <= cutoff {
			delete(records, fp)
		}
	}

	return records
}

// save rewrites the full store. Expired entries dropped during load are
// purged here as a side effect. Write failures are logged and absorbed;
// the worst case is a re-published duplicate.
func (f *Filter) save(records map[string]Record) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		f.log.WithError(err).Warn("failed to encode duplicate store")
		return
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		f.log.WithError(err).Warn("failed to create duplicate store directory")
		return
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		f.log.WithError(err).Warn("failed to write duplicate store")
	}
}

func preview(text string) string {
	if len(text) > 50 {
		return text[:50] + "..."
	}
	return text
}
