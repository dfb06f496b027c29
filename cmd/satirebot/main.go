// Command satirebot watches configured social accounts and publishes
// satirical summaries of their best posts to a Telegram channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rabbitresearch/satirebot/internal/auth"
	"github.com/rabbitresearch/satirebot/internal/config"
	"github.com/rabbitresearch/satirebot/internal/dedup"
	"github.com/rabbitresearch/satirebot/internal/imagegen"
	"github.com/rabbitresearch/satirebot/internal/logging"
	"github.com/rabbitresearch/satirebot/internal/pipeline"
	"github.com/rabbitresearch/satirebot/internal/publish"
	"github.com/rabbitresearch/satirebot/internal/scheduler"
	"github.com/rabbitresearch/satirebot/internal/source"
	"github.com/rabbitresearch/satirebot/internal/summarize"
	"github.com/rabbitresearch/satirebot/internal/summarize/providers"
)

func main() {
	var (
		accountsPath = flag.String("accounts", "accounts.txt", "path to the account list")
		login        = flag.Bool("login", false, "open a browser to log in to x.com, then exit")
		schedule     = flag.String("schedule", "", "cron expression for repeated runs (empty = run once)")
		timezone     = flag.String("timezone", "Europe/Berlin", "timezone for the schedule")
	)
	flag.Parse()

	// .env is optional; real deployments use actual environment variables.
	_ = godotenv.Load()

	log := logging.New()

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
		if saveErr := cfg.Save(); saveErr != nil {
			log.WithError(saveErr).Fatal("failed to write default config")
		}
		log.Info("wrote default config")
	}

	cookiePath, err := auth.DefaultCookieStorePath()
	if err != nil {
		log.WithError(err).Fatal("failed to resolve cookie store path")
	}
	authManager := auth.NewManager(auth.NewCookieStore(cookiePath))

	if *login {
		runLogin(authManager, log)
		return
	}

	accounts, err := config.LoadAccounts(*accountsPath)
	if err != nil {
		log.WithError(err).WithField("path", *accountsPath).Fatal("failed to load account list")
	}
	if len(accounts) == 0 {
		log.Fatal("account list is empty")
	}

	telegramToken := requireEnv(log, "TELEGRAM_BOT_TOKEN")
	telegramChannel := requireEnv(log, "TELEGRAM_CHANNEL_ID")

	publisher, err := publish.NewPublisher(telegramToken, telegramChannel, cfg.Publish.Footer, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Telegram")
	}

	provider, err := buildProvider(cfg.Summary.Provider)
	if err != nil {
		log.WithError(err).Fatal("failed to configure summary provider")
	}
	summarizer := summarize.New(provider, cfg.Summary.SystemInstruction, log)

	images := imagegen.New(os.Getenv("OPENAI_API_KEY"), cfg.Image, cfg.ImagePrompt, log)

	cachePath, err := cfg.DedupCachePath()
	if err != nil {
		log.WithError(err).Fatal("failed to resolve duplicate cache path")
	}
	duplicates := dedup.New(cachePath, cfg.Dedup.CacheDays, cfg.Dedup.MinTextLength, log)

	filter := source.PreFilter{
		MinEngagementTotal: cfg.Quality.MinEngagementTotal,
		MinLikes:           cfg.Quality.MinLikes,
	}
	primary := source.NewXAdapter(authManager, cfg.Scraping.Headless, filter, log)
	defer primary.Close()
	fallback := source.NewMirrorAdapter(cfg.Mirrors.Instances, filter, log)
	fetcher := source.NewFetcher(primary, fallback, log)

	pipe := pipeline.New(cfg, fetcher, duplicates, summarizer, images, publisher, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *schedule == "" {
		pipe.Run(ctx, accounts)
		return
	}

	sched, err := scheduler.New(*timezone, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create scheduler")
	}
	if err := sched.AddJob("pipeline", *schedule, func(jobCtx context.Context) error {
		pipe.Run(jobCtx, accounts)
		return nil
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule pipeline")
	}

	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
}

// buildProvider picks the summary backend. Each provider reads its own
// API key from the environment.
func buildProvider(name string) (summarize.Provider, error) {
	switch name {
	case "openai", "":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return providers.NewOpenAIProvider(key), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return providers.NewAnthropicProvider(key), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", name)
	}
}

func runLogin(authManager *auth.Manager, log logging.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("opening browser for x.com login")
	if err := authManager.Login(ctx); err != nil {
		log.WithError(err).Fatal("login failed")
	}
	log.Info("login successful, session saved")
}

func requireEnv(log logging.Logger, name string) string {
	value := os.Getenv(name)
	if value == "" {
		log.WithField("var", name).Fatal("required environment variable not set")
	}
	return value
}
