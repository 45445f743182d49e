package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"

	"github.com/suspectuso/clip-review-bot/internal/config"
	"github.com/suspectuso/clip-review-bot/internal/health"
	"github.com/suspectuso/clip-review-bot/internal/logger"
	"github.com/suspectuso/clip-review-bot/internal/queue"
	"github.com/suspectuso/clip-review-bot/internal/review"
	"github.com/suspectuso/clip-review-bot/internal/stats"
	"github.com/suspectuso/clip-review-bot/internal/worker"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("worker", cfg.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rdb, err := queue.Open(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	q := queue.New(rdb, cfg.QueueName)
	if n, err := q.Len(ctx); err == nil {
		log.Info().Str("queue", cfg.QueueName).Int64("pending", n).Msg("queue connected")
	}

	// The worker only sends messages, it never polls for updates
	client, err := bot.New(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram client")
	}

	if cfg.YouTubeAPIKey == "" {
		log.Warn().Msg("YOUTUBE_API_KEY is not set, youtube stats will be unavailable")
	}
	fetcher := stats.NewFetcher(cfg.YouTubeAPIBaseURL, cfg.YouTubeAPIKey, cfg.FetchTimeout)

	// decisions are applied by the bot process
	reviewer := review.New(client, cfg.AdminChatID, nil, log.With().Str("component", "review").Logger())
	processor := worker.NewProcessor(fetcher, reviewer, log.With().Str("component", "processor").Logger())

	healthServer := health.NewServer(map[string]health.Check{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)
	go func() {
		if err := healthServer.Start(ctx, cfg.HealthPort); err != nil {
			log.Error().Err(err).Msg("health server")
		}
	}()

	worker.New(q, processor, client, log).Run(ctx)
	log.Info().Msg("shutting down...")
}
