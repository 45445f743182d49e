package review

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/suspectuso/clip-review-bot/internal/chat"
	"github.com/suspectuso/clip-review-bot/internal/queue"
	"github.com/suspectuso/clip-review-bot/internal/stats"
)

// Action is the admin's verdict on a submission
type Action string

const (
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
)

const callbackDelimiter = "_"

// Fixed texts sent to submitters
const (
	ApprovedText = "🎉 Ваша заявка одобрена! Выплата будет произведена на указанные реквизиты."
	DeclinedText = "😔 К сожалению, ваша заявка отклонена."
)

var (
	ErrBadCallback    = errors.New("malformed decision callback")
	ErrAlreadyDecided = errors.New("submission already decided")
)

// Guard claims an admin message so a decision is applied once
type Guard interface {
	Claim(ctx context.Context, chatID int64, messageID int) (bool, error)
}

// Decision is one admin button press
type Decision struct {
	Action    Action
	UserID    int64
	ChatID    int64
	MessageID int
	// ReportText is the admin message as currently shown
	ReportText string
	Actor      string
}

// Reviewer posts submission reports to the admin chat and applies decisions
type Reviewer struct {
	messenger   chat.Messenger
	adminChatID int64
	guard       Guard
	log         zerolog.Logger
}

func New(messenger chat.Messenger, adminChatID int64, guard Guard, log zerolog.Logger) *Reviewer {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &Reviewer{
		messenger:   messenger,
		adminChatID: adminChatID,
		guard:       guard,
		log:         log,
	}
}

// CallbackData builds the button payload "<action>_<user_id>"
func CallbackData(action Action, userID int64) string {
	return string(action) + callbackDelimiter + strconv.FormatInt(userID, 10)
}

// ParseCallback splits "<approve|decline>_<user_id>"
func ParseCallback(data string) (Action, int64, error) {
	name, rawID, ok := strings.Cut(data, callbackDelimiter)
	if !ok || strings.Contains(rawID, callbackDelimiter) {
		return "", 0, ErrBadCallback
	}

	action := Action(name)
	if action != ActionApprove && action != ActionDecline {
		return "", 0, ErrBadCallback
	}

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, ErrBadCallback
	}
	return action, userID, nil
}

// IsDecisionCallback reports whether data belongs to the review buttons
func IsDecisionCallback(data string) bool {
	return strings.HasPrefix(data, string(ActionApprove)+callbackDelimiter) ||
		strings.HasPrefix(data, string(ActionDecline)+callbackDelimiter)
}

// DecisionKeyboard returns the approve/decline buttons for a submitter
func DecisionKeyboard(userID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Одобрить", CallbackData: CallbackData(ActionApprove, userID)},
				{Text: "❌ Отклонить", CallbackData: CallbackData(ActionDecline, userID)},
			},
		},
	}
}

// ComposeReport renders the admin report as HTML
func ComposeReport(task queue.Task, res stats.Result) string {
	var b strings.Builder

	b.WriteString("📥 <b>Новая заявка</b>\n\n")
	fmt.Fprintf(&b, "👤 От: %s (ID: <code>%d</code>)\n", chat.Mention(task.UserID, task.Username), task.UserID)
	fmt.Fprintf(&b, "🔗 Ссылка: %s\n", html.EscapeString(task.VideoURL))
	fmt.Fprintf(&b, "📺 Платформа: %s\n\n", res.Platform)

	if !res.OK() {
		errText := "unknown error"
		if res.Err != nil {
			errText = res.Err.Error()
		}
		fmt.Fprintf(&b, "⚠️ Статистика недоступна: %s", html.EscapeString(errText))
		return b.String()
	}

	fmt.Fprintf(&b, "👁 Просмотры: <b>%s</b>\n", html.EscapeString(res.Counts.Views))
	fmt.Fprintf(&b, "❤️ Лайки: <b>%s</b>\n", html.EscapeString(res.Counts.Likes))
	fmt.Fprintf(&b, "💬 Комментарии: <b>%s</b>", html.EscapeString(res.Counts.Comments))
	return b.String()
}

// Post sends the report with decision buttons to the admin chat
func (r *Reviewer) Post(ctx context.Context, task queue.Task, res stats.Result) (*models.Message, error) {
	disablePreview := true
	msg, err := r.messenger.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    r.adminChatID,
		Text:      ComposeReport(task, res),
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
		ReplyMarkup: DecisionKeyboard(task.UserID),
	})
	if err != nil {
		return nil, fmt.Errorf("send admin report: %w", err)
	}

	r.log.Info().
		Str("task_id", task.ID).
		Int64("user_id", task.UserID).
		Int("message_id", msg.ID).
		Bool("stats_ok", res.OK()).
		Msg("admin report posted")
	return msg, nil
}

// Decide notifies the submitter and annotates the admin message with the
// outcome, removing its buttons. A second decision on the same message
// returns ErrAlreadyDecided and sends nothing.
func (r *Reviewer) Decide(ctx context.Context, d Decision) error {
	claimed, err := r.guard.Claim(ctx, d.ChatID, d.MessageID)
	if err != nil {
		return fmt.Errorf("claim decision: %w", err)
	}
	if !claimed {
		return ErrAlreadyDecided
	}

	notice, verdict := DeclinedText, "❌ Отклонено"
	if d.Action == ActionApprove {
		notice, verdict = ApprovedText, "✅ Одобрено"
	}

	if _, err := r.messenger.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: d.UserID,
		Text:   notice,
	}); err != nil {
		// the submitter may have blocked the bot, the report is still annotated
		r.log.Warn().Err(err).Int64("user_id", d.UserID).Msg("notify submitter")
	}

	// Omitting reply_markup on edit removes the inline keyboard
	annotated := fmt.Sprintf("%s\n\n%s (%s)", d.ReportText, verdict, d.Actor)
	if _, err := r.messenger.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    d.ChatID,
		MessageID: d.MessageID,
		Text:      annotated,
	}); err != nil {
		return fmt.Errorf("annotate report: %w", err)
	}

	r.log.Info().
		Str("action", string(d.Action)).
		Int64("user_id", d.UserID).
		Str("actor", d.Actor).
		Msg("submission decided")
	return nil
}

// MemoryGuard is a process-local Guard
type MemoryGuard struct {
	mu      sync.Mutex
	decided map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{decided: make(map[string]struct{})}
}

func (g *MemoryGuard) Claim(_ context.Context, chatID int64, messageID int) (bool, error) {
	key := fmt.Sprintf("%d:%d", chatID, messageID)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.decided[key]; ok {
		return false, nil
	}
	g.decided[key] = struct{}{}
	return true, nil
}
