package worker

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"

	"github.com/suspectuso/clip-review-bot/internal/progress"
	"github.com/suspectuso/clip-review-bot/internal/queue"
)

// ForwardedText replaces the submitter's acknowledgment once the report is posted
const ForwardedText = "📨 Ваша заявка передана на модерацию. Ожидайте решения."

// Source yields queued tasks
type Source interface {
	Dequeue(ctx context.Context, wait time.Duration) (queue.Task, error)
}

// Worker consumes the broker list in its own process
type Worker struct {
	source    Source
	processor *Processor
	editor    progress.Editor
	wait      time.Duration
	backoff   time.Duration
	log       zerolog.Logger
}

func New(source Source, processor *Processor, editor progress.Editor, log zerolog.Logger) *Worker {
	return &Worker{
		source:    source,
		processor: processor,
		editor:    editor,
		wait:      5 * time.Second,
		backoff:   time.Second,
		log:       log,
	}
}

// Run loops until ctx is cancelled: dequeue, process, repeat. A task that
// fails mid-processing is not redelivered.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Msg("worker started, waiting for tasks")

	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("worker stopped")
			return
		}

		task, err := w.source.Dequeue(ctx, w.wait)
		if err != nil {
			w.handleDequeueError(ctx, err)
			continue
		}

		w.handle(ctx, task)
	}
}

func (w *Worker) handleDequeueError(ctx context.Context, err error) {
	var malformed *queue.MalformedError
	switch {
	case errors.Is(err, queue.ErrEmpty):
	case ctx.Err() != nil:
	case errors.As(err, &malformed):
		w.log.Error().Err(err).Str("payload", malformed.Payload).Msg("dropping malformed task")
	default:
		w.log.Error().Err(err).Msg("dequeue task")
		select {
		case <-ctx.Done():
		case <-time.After(w.backoff):
		}
	}
}

func (w *Worker) handle(ctx context.Context, task queue.Task) {
	if err := w.processor.Process(ctx, task); err != nil {
		w.log.Error().Err(err).Str("task_id", task.ID).Msg("process task")
		return
	}

	if task.ChatID == 0 || task.MessageID == 0 {
		return
	}
	if _, err := w.editor.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    task.ChatID,
		MessageID: task.MessageID,
		Text:      ForwardedText,
	}); err != nil {
		w.log.Debug().Err(err).Str("task_id", task.ID).Msg("mark acknowledgment forwarded")
	}
}
