// Package pipeline wires fetching, filtering, summarization and
// publishing into one sequential run.
package pipeline

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/rabbitresearch/satirebot/internal/config"
	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/publish"
	"github.com/rabbitresearch/satirebot/internal/quality"
	"github.com/rabbitresearch/satirebot/internal/tonality"
	"github.com/rabbitresearch/satirebot/internal/types"
)

// Source yields candidate posts for an account. Fetch absorbs source
// failures and returns what it could get.
type Source interface {
	Fetch(ctx context.Context, account string, count int) []types.Post
}

// Deduper decides whether a candidate was already handled and records
// successfully published ones.
type Deduper interface {
	IsDuplicate(text, id string) bool
	MarkProcessed(text, id string)
}

// Summarizer produces summaries and image prompts.
type Summarizer interface {
	Summarize(ctx context.Context, model, instruction, text string) string
	ImagePrompt(ctx context.Context, model, text, summary string) (string, error)
}

// ImageGenerator renders an illustration for posts without media.
type ImageGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, text, topic string) (string, error)
}

// Publisher delivers a finished item to the channel.
type Publisher interface {
	Publish(item publish.Item) error
}

// Stats summarizes one run.
type Stats struct {
	Accounts   int
	Candidates int
	Duplicates int
	Rejected   int
	Published  int
	Failed     int
}

// Pipeline processes accounts strictly sequentially. One candidate is
// in flight at a time; throttle delays separate candidates and
// publishes.
type Pipeline struct {
	cfg        *config.Config
	source     Source
	dedup      Deduper
	scorer     *quality.Scorer
	tone       *tonality.Selector
	summarizer Summarizer
	images     ImageGenerator
	publisher  Publisher
	log        logging.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// New assembles a pipeline from its stages.
func New(cfg *config.Config, source Source, dedup Deduper, summarizer Summarizer, images ImageGenerator, publisher Publisher, log logging.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		dedup:      dedup,
		scorer:     quality.New(cfg.Quality.Keywords, cfg.Quality.MinQualityScore),
		tone:       tonality.New(cfg.Tonality),
		summarizer: summarizer,
		images:     images,
		publisher:  publisher,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Run executes one full pass over the account list. Accounts are
// shuffled and capped per run so slow sources rotate fairly across
// scheduled runs. Per-account failures never abort the run.
func (p *Pipeline) Run(ctx context.Context, accounts []types.AccountConfig) Stats {
	runID := uuid.NewString()
	log := p.log.WithField("run_id", runID)

	accounts = append([]types.AccountConfig(nil), accounts...)
	rand.Shuffle(len(accounts), func(i, j int) {
		accounts[i], accounts[j] = accounts[j], accounts[i]
	})
	if max := p.cfg.Limits.MaxAccountsPerRun; max > 0 && len(accounts) > max {
		accounts = accounts[:max]
	}

	var stats Stats
	for _, account := range accounts {
		if ctx.Err() != nil {
			log.Warn("run cancelled")
			break
		}

		stats.Accounts++
		p.processAccount(ctx, account, &stats, log.WithField("account", account.Identifier))
	}

	log.WithFields(logging.Fields{
		"accounts":   stats.Accounts,
		"candidates": stats.Candidates,
		"duplicates": stats.Duplicates,
		"rejected":   stats.Rejected,
		"published":  stats.Published,
		"failed":     stats.Failed,
	}).Info("run finished")

	return stats
}

func (p *Pipeline) processAccount(ctx context.Context, account types.AccountConfig, stats *Stats, log logging.Logger) {
	posts := p.source.Fetch(ctx, account.Identifier, p.cfg.Limits.PostsPerAccount)
	if len(posts) == 0 {
		log.Info("no candidates for account")
		return
	}

	// The cap bounds candidates considered, not publishes: the primary
	// adapter over-fetches, and posts beyond the cap must stay untouched
	// by the duplicate check so a later run can still pick them up.
	if limit := p.cfg.Limits.PostsPerAccount; limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	for i, post := range posts {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			p.sleep(ctx, time.Duration(p.cfg.Limits.CandidateDelaySec)*time.Second)
		}

		stats.Candidates++
		if p.processCandidate(ctx, account, post, stats, log.WithField("post_id", post.ID)) {
			p.sleep(ctx, time.Duration(p.cfg.Limits.PublishDelaySec)*time.Second)
		}
	}
}

// processCandidate runs one post through the full chain. It reports
// whether the post was published.
func (p *Pipeline) processCandidate(ctx context.Context, account types.AccountConfig, post types.Post, stats *Stats, log logging.Logger) bool {
	if p.dedup.IsDuplicate(post.Text, post.ID) {
		stats.Duplicates++
		log.Debug("skipping duplicate post")
		return false
	}

	engagement := post.Metrics()
	assessment := p.scorer.Score(post.Text, &engagement)
	if !p.scorer.Passes(assessment) {
		stats.Rejected++
		log.WithFields(logging.Fields{
			"score":   assessment.Score,
			"reasons": assessment.Reasons,
		}).Debug("post below quality threshold")
		return false
	}

	style := p.tone.SelectStyle(post.Text, &engagement)
	topic := p.tone.Categorize(post.Text)

	// An explicit per-account instruction overrides the tonality pick.
	instructionKey := account.Instruction
	if instructionKey == "" || instructionKey == "default" {
		instructionKey = style
	}

	model := p.cfg.Model(account.Model)
	summary := p.summarizer.Summarize(ctx, model, p.cfg.Instruction(instructionKey), post.Text)

	item := publish.Item{Post: post, Summary: summary}

	if len(post.Images) == 0 && p.images.Enabled() {
		item.GeneratedImage = p.generateImage(ctx, model, post, summary, topic, log)
	}

	if err := p.publisher.Publish(item); err != nil {
		stats.Failed++
		log.WithError(err).Error("failed to publish post")
		return false
	}

	p.dedup.MarkProcessed(post.Text, post.ID)
	stats.Published++
	log.WithFields(logging.Fields{
		"style": style,
		"topic": topic,
		"score": assessment.Score,
	}).Info("published post")

	return true
}

// generateImage is best-effort; any failure means the item goes out
// without an illustration.
func (p *Pipeline) generateImage(ctx context.Context, model string, post types.Post, summary, topic string, log logging.Logger) string {
	promptText, err := p.summarizer.ImagePrompt(ctx, model, post.Text, summary)
	if err != nil {
		log.WithError(err).Debug("image prompt generation failed, using post text")
		promptText = post.Text
	}

	url, err := p.images.Generate(ctx, promptText, topic)
	if err != nil {
		log.WithError(err).Warn("image generation failed")
		return ""
	}
	return url
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
