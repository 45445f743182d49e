// Package chattest provides an in-memory chat.Messenger for tests.
package chattest

import (
	"context"
	"errors"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrEditFailed is returned by edits once FailEdits is set.
var ErrEditFailed = errors.New("chattest: edit failed")

// Sent is a recorded sendMessage call.
type Sent struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    *models.InlineKeyboardMarkup
}

// Edit is a recorded editMessageText call.
type Edit struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    *models.InlineKeyboardMarkup
}

// Recorder records messages instead of talking to Telegram.
type Recorder struct {
	mu        sync.Mutex
	nextID    int
	sent      []Sent
	edits     []Edit
	failEdits bool
}

func New() *Recorder {
	return &Recorder{nextID: 100}
}

// FailEdits makes every following edit return ErrEditFailed.
func (r *Recorder) FailEdits() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failEdits = true
}

func (r *Recorder) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	chatID := toInt64(params.ChatID)
	r.sent = append(r.sent, Sent{
		ChatID:    chatID,
		MessageID: r.nextID,
		Text:      params.Text,
		Markup:    inlineMarkup(params.ReplyMarkup),
	})
	return &models.Message{
		ID:   r.nextID,
		Chat: models.Chat{ID: chatID},
		Text: params.Text,
	}, nil
}

func (r *Recorder) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failEdits {
		return nil, ErrEditFailed
	}

	chatID := toInt64(params.ChatID)
	r.edits = append(r.edits, Edit{
		ChatID:    chatID,
		MessageID: params.MessageID,
		Text:      params.Text,
		Markup:    inlineMarkup(params.ReplyMarkup),
	})
	return &models.Message{
		ID:   params.MessageID,
		Chat: models.Chat{ID: chatID},
		Text: params.Text,
	}, nil
}

// Sent returns a copy of recorded sends.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// SentTo returns recorded sends addressed to chatID.
func (r *Recorder) SentTo(chatID int64) []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Sent
	for _, s := range r.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Edits returns a copy of recorded edits.
func (r *Recorder) Edits() []Edit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Edit(nil), r.edits...)
}

func toInt64(v any) int64 {
	switch id := v.(type) {
	case int64:
		return id
	case int:
		return int64(id)
	}
	return 0
}

func inlineMarkup(m models.ReplyMarkup) *models.InlineKeyboardMarkup {
	if kb, ok := m.(*models.InlineKeyboardMarkup); ok {
		return kb
	}
	return nil
}
