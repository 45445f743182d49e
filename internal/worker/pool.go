package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/suspectuso/clip-review-bot/internal/queue"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Pool processes tasks in-process with bounded concurrency
type Pool struct {
	ctx       context.Context
	processor *Processor
	sem       chan struct{}
	log       zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool runs tasks under ctx, so a submission in flight keeps running
// after the update that created it has been handled.
func NewPool(ctx context.Context, processor *Processor, size int, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		ctx:       ctx,
		processor: processor,
		sem:       make(chan struct{}, size),
		log:       log,
	}
}

// Dispatch starts processing and returns a channel that receives the outcome once.
func (p *Pool) Dispatch(_ context.Context, task queue.Task) (<-chan error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	done := make(chan error, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(done)

		select {
		case p.sem <- struct{}{}:
		case <-p.ctx.Done():
			done <- p.ctx.Err()
			return
		}
		defer func() { <-p.sem }()

		err := p.processor.Process(p.ctx, task)
		if err != nil {
			p.log.Error().Err(err).Str("task_id", task.ID).Msg("process task")
		}
		done <- err
	}()

	return done, nil
}

// Close rejects new tasks and waits for the running ones.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
