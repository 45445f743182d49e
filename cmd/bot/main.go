package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suspectuso/clip-review-bot/internal/config"
	"github.com/suspectuso/clip-review-bot/internal/health"
	"github.com/suspectuso/clip-review-bot/internal/intake"
	"github.com/suspectuso/clip-review-bot/internal/logger"
	"github.com/suspectuso/clip-review-bot/internal/queue"
	"github.com/suspectuso/clip-review-bot/internal/review"
	"github.com/suspectuso/clip-review-bot/internal/stats"
	"github.com/suspectuso/clip-review-bot/internal/storage"
	"github.com/suspectuso/clip-review-bot/internal/telegram"
	"github.com/suspectuso/clip-review-bot/internal/worker"
)

const decisionTTL = 30 * 24 * time.Hour

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("bot", cfg.Debug)

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize storage
	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init storage")
	}
	defer store.Close()
	log.Info().Msg("storage initialized")

	// Redis backs the queue and the decision guard
	rdb, err := queue.Open(ctx, cfg.RedisURL)
	if err != nil {
		if cfg.DispatchMode == config.DispatchQueue {
			log.Fatal().Err(err).Msg("connect redis")
		}
		log.Warn().Err(err).Msg("redis unavailable, decisions are guarded in memory")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Initialize telegram bot
	tgBot, err := telegram.New(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram bot")
	}
	client := tgBot.Client()

	var guard review.Guard = review.NewMemoryGuard()
	if rdb != nil {
		guard = queue.NewDecisionGuard(rdb, "decided", decisionTTL)
	}
	reviewer := review.New(client, cfg.AdminChatID, guard, log.With().Str("component", "review").Logger())

	var dispatcher queue.Dispatcher
	switch cfg.DispatchMode {
	case config.DispatchInline:
		fetcher := stats.NewFetcher(cfg.YouTubeAPIBaseURL, cfg.YouTubeAPIKey, cfg.FetchTimeout)
		processor := worker.NewProcessor(fetcher, reviewer, log.With().Str("component", "processor").Logger())
		pool := worker.NewPool(ctx, processor, cfg.WorkerConcurrency, log)
		defer pool.Close()
		dispatcher = pool
	default:
		dispatcher = queue.New(rdb, cfg.QueueName)
	}
	log.Info().Str("mode", cfg.DispatchMode).Msg("dispatcher ready")

	opts := []intake.Option{intake.WithProgressInterval(cfg.ProgressInterval)}
	if cfg.RequirePaymentProfile {
		opts = append(opts, intake.WithRequiredProfile(store))
	}
	tgBot.SetPipeline(
		intake.New(client, dispatcher, log.With().Str("component", "intake").Logger(), opts...),
		reviewer,
	)

	// Start health server
	healthServer := health.NewServer(healthChecks(store, rdb), log)
	go func() {
		if err := healthServer.Start(ctx, cfg.HealthPort); err != nil {
			log.Error().Err(err).Msg("health server")
		}
	}()

	// Start bot polling
	log.Info().Msg("starting bot polling...")
	if err := tgBot.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start bot")
	}
	log.Info().Msg("shutting down...")
}

func healthChecks(store *storage.Storage, rdb *redis.Client) map[string]health.Check {
	checks := map[string]health.Check{"db": store.Ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
