// Package source retrieves candidate posts for an account, trying the
// authenticated primary adapter first and falling back to public mirror
// pages when it yields nothing.
package source

import (
	"context"
	"strings"

	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/types"
)

// Adapter fetches recent non-reply posts of one account, normalized and
// pre-filtered.
type Adapter interface {
	Fetch(ctx context.Context, account string, count int) ([]types.Post, error)
}

// PreFilter is the engagement/reply exclusion every adapter applies
// before a candidate reaches the pipeline.
type PreFilter struct {
	MinEngagementTotal int
	MinLikes           int
}

// Admit reports whether a normalized post clears the pre-filter.
func (f PreFilter) Admit(p types.Post) bool {
	if p.IsReply || strings.HasPrefix(strings.TrimSpace(p.Text), "@") {
		return false
	}
	return p.EngagementTotal >= f.MinEngagementTotal && p.Likes >= f.MinLikes
}

// Fetcher orchestrates primary and fallback retrieval for one account.
type Fetcher struct {
	primary  Adapter
	fallback Adapter
	log      logging.Logger
}

// NewFetcher creates the retrieval orchestrator.
func NewFetcher(primary, fallback Adapter, log logging.Logger) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback, log: log}
}

// Fetch returns up to the adapters' bounds of candidate posts for the
// account, newest first. The primary adapter is asked for an over-fetch
// (at least 10 or 5x the desired count) to leave room for pre-filter
// attrition; any primary failure or empty result falls through to the
// fallback adapter with the original count. Total failure of both
// adapters yields an empty slice, never an error: the caller skips the
// account this round.
func (f *Fetcher) Fetch(ctx context.Context, account string, desired int) []types.Post {
	overfetch := desired * 5
	if overfetch < 10 {
		overfetch = 10
	}

	posts, err := f.primary.Fetch(ctx, account, overfetch)
	if err != nil {
		f.log.WithError(err).WithField("account", account).Warn("primary source failed, trying fallback")
	} else if len(posts) > 0 {
		f.log.WithFields(logging.Fields{"account": account, "posts": len(posts)}).Info("fetched via primary source")
		return posts
	} else {
		f.log.WithField("account", account).Info("primary source returned nothing, trying fallback")
	}

	posts, err = f.fallback.Fetch(ctx, account, desired)
	if err != nil {
		f.log.WithError(err).WithField("account", account).Warn("fallback source failed")
		return nil
	}
	if len(posts) > 0 {
		f.log.WithFields(logging.Fields{"account": account, "posts": len(posts)}).Info("fetched via fallback source")
	}
	return posts
}
