package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"

	"github.com/suspectuso/clip-review-bot/internal/chat"
	"github.com/suspectuso/clip-review-bot/internal/progress"
	"github.com/suspectuso/clip-review-bot/internal/queue"
	"github.com/suspectuso/clip-review-bot/internal/stats"
)

// Fixed replies
const (
	RejectText     = "❌ Принимаю только ссылки TikTok и YouTube."
	AckText        = "✅ Спасибо! Ваша заявка принята в обработку."
	NoProfileText  = "💳 Сначала укажите реквизиты для выплаты: /start"
	FailedText     = "⚠️ Не удалось принять заявку, попробуйте позже."
	AnalyzingTitle = "🔎 Анализируем видео..."
	AnalyzedText   = "📨 Готово! Заявка передана на модерацию."
	AnalyzeFailed  = "⚠️ Не удалось передать заявку на модерацию. Попробуйте отправить ссылку ещё раз."
)

var (
	ErrUnsupportedLink = errors.New("unsupported link")
	ErrNoProfile       = errors.New("payment profile required")
)

// ProfileChecker tells whether a user registered a payout method
type ProfileChecker interface {
	HasProfile(ctx context.Context, userID int64) (bool, error)
}

// Service validates submissions and hands them off for processing
type Service struct {
	messenger  chat.Messenger
	dispatcher queue.Dispatcher
	profiles   ProfileChecker
	interval   time.Duration
	log        zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithRequiredProfile refuses submissions from users without a payout method
func WithRequiredProfile(p ProfileChecker) Option {
	return func(s *Service) { s.profiles = p }
}

// WithProgressInterval sets the animation frame interval
func WithProgressInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

func New(messenger chat.Messenger, dispatcher queue.Dispatcher, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		messenger:  messenger,
		dispatcher: dispatcher,
		interval:   400 * time.Millisecond,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// submission is the per-submission context shared by the progress
// animation and the completion watcher.
type submission struct {
	task      queue.Task
	messageID int
	done      <-chan error
	stop      context.CancelFunc
}

// Submit validates text as a video link, acknowledges the sender and
// dispatches a task.
func (s *Service) Submit(ctx context.Context, from chat.Sender, chatID int64, text string) error {
	url := strings.TrimSpace(text)
	if !stats.Supported(url) {
		s.reply(ctx, chatID, RejectText)
		return ErrUnsupportedLink
	}

	if s.profiles != nil {
		ok, err := s.profiles.HasProfile(ctx, from.ID)
		if err != nil {
			s.reply(ctx, chatID, FailedText)
			return fmt.Errorf("check profile: %w", err)
		}
		if !ok {
			s.reply(ctx, chatID, NoProfileText)
			return ErrNoProfile
		}
	}

	ack, err := s.messenger.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: AckText})
	if err != nil {
		return fmt.Errorf("send acknowledgment: %w", err)
	}

	task := queue.NewTask(from.ID, from.Username, url, chatID, ack.ID)
	done, err := s.dispatcher.Dispatch(ctx, task)
	if err != nil {
		s.reply(ctx, chatID, FailedText)
		return fmt.Errorf("dispatch task: %w", err)
	}

	s.log.Info().
		Str("task_id", task.ID).
		Int64("user_id", from.ID).
		Str("url", url).
		Msg("submission accepted")

	if done != nil {
		s.track(chatID, task, done)
	}
	return nil
}

// track animates an "analyzing" message until the dispatched task resolves.
func (s *Service) track(chatID int64, task queue.Task, done <-chan error) {
	frames := progress.BarFrames(AnalyzingTitle)

	// The update context ends with the handler, the animation must outlive it
	bg := context.Background()
	msg, err := s.messenger.SendMessage(bg, &bot.SendMessageParams{ChatID: chatID, Text: frames[0]})
	if err != nil {
		s.log.Debug().Err(err).Str("task_id", task.ID).Msg("send progress message")
		go func() { <-done }()
		return
	}

	animCtx, stop := context.WithCancel(bg)
	sub := &submission{task: task, messageID: msg.ID, done: done, stop: stop}
	indicator := progress.New(s.messenger, frames[1:], s.interval, s.log)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		indicator.Run(animCtx, chatID, sub.messageID)
	}()

	go func() {
		err := <-sub.done
		sub.stop()
		<-stopped

		final := AnalyzedText
		if err != nil {
			final = AnalyzeFailed
		}
		if _, editErr := s.messenger.EditMessageText(bg, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: sub.messageID,
			Text:      final,
		}); editErr != nil {
			s.log.Debug().Err(editErr).Str("task_id", sub.task.ID).Msg("finish progress message")
		}
	}()
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if _, err := s.messenger.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}
