package worker

import (
	"context"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/suspectuso/clip-review-bot/internal/queue"
	"github.com/suspectuso/clip-review-bot/internal/stats"
)

// Fetcher collects stats for a link
type Fetcher interface {
	Fetch(ctx context.Context, url string) stats.Result
}

// Reporter posts a finished submission for review
type Reporter interface {
	Post(ctx context.Context, task queue.Task, res stats.Result) (*models.Message, error)
}

// Processor turns a task into an admin report
type Processor struct {
	fetcher  Fetcher
	reporter Reporter
	log      zerolog.Logger
}

func NewProcessor(fetcher Fetcher, reporter Reporter, log zerolog.Logger) *Processor {
	return &Processor{fetcher: fetcher, reporter: reporter, log: log}
}

// Process fetches stats and posts the report. Fetch failures are part of
// the report; only a failed post is returned.
func (p *Processor) Process(ctx context.Context, task queue.Task) error {
	started := time.Now()
	p.log.Info().
		Str("task_id", task.ID).
		Str("username", task.Username).
		Str("url", task.VideoURL).
		Msg("processing submission")

	res := p.fetcher.Fetch(ctx, task.VideoURL)
	if !res.OK() {
		p.log.Warn().Err(res.Err).Str("task_id", task.ID).Msg("stats unavailable")
	}

	if _, err := p.reporter.Post(ctx, task, res); err != nil {
		return err
	}

	p.log.Info().
		Str("task_id", task.ID).
		Str("username", task.Username).
		Dur("took", time.Since(started)).
		Msg("submission processed")
	return nil
}
