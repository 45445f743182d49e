package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/suspectuso/clip-review-bot/internal/chat"
	"github.com/suspectuso/clip-review-bot/internal/config"
	"github.com/suspectuso/clip-review-bot/internal/intake"
	"github.com/suspectuso/clip-review-bot/internal/payment"
	"github.com/suspectuso/clip-review-bot/internal/review"
	"github.com/suspectuso/clip-review-bot/internal/storage"
)

// ProfileStore persists payout methods
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p storage.Profile) error
	GetProfile(ctx context.Context, userID int64) (*storage.Profile, error)
	CountProfiles(ctx context.Context) (int, error)
	ClearProfiles(ctx context.Context) (int64, error)
}

// API is the part of *bot.Bot the handlers use
type API interface {
	chat.Messenger
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot      *bot.Bot
	api      API
	cfg      *config.Config
	store    ProfileStore
	intake   *intake.Service
	reviewer *review.Reviewer
	states   *StateManager
	log      zerolog.Logger
}

// New creates the telegram client and registers handlers. SetPipeline must
// be called before Start.
func New(cfg *config.Config, store ProfileStore, log zerolog.Logger) (*Bot, error) {
	b := newBot(cfg, nil, store, log)

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot
	b.api = tgBot

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, b.helpHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/ping", bot.MatchTypeExact, b.pingHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, b.cancelHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/clear_db", bot.MatchTypeExact, b.clearDBHandler)

	return b, nil
}

func newBot(cfg *config.Config, api API, store ProfileStore, log zerolog.Logger) *Bot {
	return &Bot{
		api:    api,
		cfg:    cfg,
		store:  store,
		states: NewStateManager(),
		log:    log,
	}
}

// SetPipeline wires submission intake and admin review
func (b *Bot) SetPipeline(in *intake.Service, rev *review.Reviewer) {
	b.intake = in
	b.reviewer = rev
}

// Client returns the underlying bot instance
func (b *Bot) Client() *bot.Bot {
	return b.bot
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) error {
	if b.intake == nil || b.reviewer == nil {
		return errors.New("telegram: pipeline is not set")
	}
	b.bot.Start(ctx)
	return nil
}

// --- Commands ---

func (b *Bot) startHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	from := chat.SenderFromUser(update.Message.From)
	profileLine := "Реквизиты для выплаты ещё не указаны."
	if p, err := b.store.GetProfile(ctx, from.ID); err == nil {
		profileLine = fmt.Sprintf("Способ выплаты: <b>%s</b>", p.Method.Title())
		if p.Details != "" {
			profileLine += fmt.Sprintf(" (<code>%s</code>)", payment.Mask(p.Details))
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		b.log.Error().Err(err).Int64("user_id", from.ID).Msg("get profile")
	}

	text := fmt.Sprintf(
		"%s, привет! 👋\n\n"+
			"Присылай ссылку на своё видео из <b>TikTok</b> или <b>YouTube</b>, "+
			"я соберу статистику и передам заявку на модерацию.\n\n"+
			"%s",
		chat.Mention(from.ID, from.Username), profileLine,
	)

	b.sendMessage(ctx, update.Message.Chat.ID, text, MainKeyboard())
}

func (b *Bot) helpHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "ℹ️ <b>Как это работает</b>\n\n" +
		"1. Укажи реквизиты для выплаты: /start → «Реквизиты для выплаты».\n" +
		"2. Отправь ссылку на видео TikTok или YouTube.\n" +
		"3. Дождись решения модератора, я пришлю уведомление.\n\n" +
		"/cancel — отменить ввод реквизитов\n" +
		"/ping — проверить, что бот на связи"

	b.sendMessage(ctx, update.Message.Chat.ID, text, nil)
}

func (b *Bot) pingHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, "🏓 pong", nil)
}

func (b *Bot) cancelHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.states.Clear(update.Message.Chat.ID)
	b.sendMessage(ctx, update.Message.Chat.ID, "Ввод реквизитов отменён.", MainKeyboard())
}

func (b *Bot) clearDBHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if !b.cfg.IsAdmin(update.Message.From.ID) {
		b.log.Warn().Int64("user_id", update.Message.From.ID).Msg("clear_db from non-admin")
		return
	}

	count, err := b.store.CountProfiles(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("count profiles")
		b.sendMessage(ctx, update.Message.Chat.ID, "❌ Ошибка базы данных.", nil)
		return
	}

	text := fmt.Sprintf("⚠️ Удалить реквизиты всех пользователей?\nЗаписей в базе: <b>%d</b>", count)
	b.sendMessage(ctx, update.Message.Chat.ID, text, ClearDBKeyboard())
}

// --- Free text ---

func (b *Bot) defaultHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}

	msg := update.Message
	text := strings.TrimSpace(msg.Text)

	if session, ok := b.states.Get(msg.Chat.ID); ok {
		switch {
		case session.AwaitingDetails():
			b.handleDetails(ctx, msg, text, session)
			return
		case session.State == StateAwaitingMethod:
			b.sendMessage(ctx, msg.Chat.ID, "Выбери способ выплаты кнопками ниже 👇", MethodKeyboard())
			return
		}
	}

	if strings.HasPrefix(text, "/") {
		b.sendMessage(ctx, msg.Chat.ID, "Неизвестная команда. Список команд: /help", nil)
		return
	}

	err := b.intake.Submit(ctx, chat.SenderFromUser(msg.From), msg.Chat.ID, text)
	switch {
	case err == nil,
		errors.Is(err, intake.ErrUnsupportedLink),
		errors.Is(err, intake.ErrNoProfile):
	default:
		b.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("submit video")
	}
}

func (b *Bot) handleDetails(ctx context.Context, msg *models.Message, text string, session Session) {
	details, err := payment.NormalizeDetails(session.Method, text)
	if err != nil {
		prompt := "❌ Номер карты должен состоять из 16 цифр и быть действительным. Попробуй ещё раз или /cancel."
		if session.Method == payment.MethodUSDT {
			prompt = "❌ Адрес USDT TRC-20 должен начинаться с «T» и содержать 34 символа. Попробуй ещё раз или /cancel."
		}
		b.sendMessage(ctx, msg.Chat.ID, prompt, nil)
		return
	}

	b.saveProfile(ctx, msg.Chat.ID, msg.From.ID, session.Method, details, nil)
}

// saveProfile persists the profile and finishes the wizard. With cb set the
// confirmation replaces the callback's message.
func (b *Bot) saveProfile(ctx context.Context, chatID, userID int64, m payment.Method, details string, cb *models.CallbackQuery) {
	if m.NeedsDetails() {
		if _, err := b.states.Fire(chatID, EventDetailsAccepted); err != nil {
			b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("wizard transition")
		}
	}

	err := b.store.UpsertProfile(ctx, storage.Profile{UserID: userID, Method: m, Details: details})
	b.states.Clear(chatID)

	text := fmt.Sprintf("✅ Способ выплаты сохранён: <b>%s</b>", m.Title())
	if details != "" {
		text += fmt.Sprintf("\n<code>%s</code>", payment.Mask(details))
	}
	text += "\n\nТеперь можно присылать ссылки на видео."

	if err != nil {
		b.log.Error().Err(err).Int64("user_id", userID).Msg("save profile")
		text = "❌ Не удалось сохранить реквизиты, попробуй позже."
	} else {
		b.log.Info().Int64("user_id", userID).Str("method", string(m)).Msg("payment profile saved")
	}

	if cb != nil {
		b.editMessage(ctx, cb.Message, text, nil)
		return
	}
	b.sendMessage(ctx, chatID, text, nil)
}

// --- Callbacks ---

func (b *Bot) callbackHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	data := cb.Data

	var toast string
	switch {
	case data == cbSetupPayment:
		b.handleSetupPayment(ctx, cb)
	case strings.HasPrefix(data, cbPaymentPrefix):
		toast = b.handlePaymentMethod(ctx, cb, strings.TrimPrefix(data, cbPaymentPrefix))
	case data == cbClearDBConfirm:
		toast = b.handleClearDB(ctx, cb, true)
	case data == cbClearDBCancel:
		toast = b.handleClearDB(ctx, cb, false)
	case review.IsDecisionCallback(data):
		toast = b.handleDecision(ctx, cb)
	default:
		b.log.Warn().Str("data", data).Int64("user_id", cb.From.ID).Msg("unknown callback")
	}

	// Answer callback to remove loading state
	if _, err := b.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
		Text:            toast,
		ShowAlert:       toast != "",
	}); err != nil {
		b.log.Debug().Err(err).Msg("answer callback")
	}
}

func (b *Bot) handleSetupPayment(ctx context.Context, cb *models.CallbackQuery) {
	chatID, ok := callbackChatID(cb)
	if !ok {
		return
	}
	b.states.Begin(chatID)
	b.editMessage(ctx, cb.Message, "💳 Выбери способ выплаты:", MethodKeyboard())
}

func (b *Bot) handlePaymentMethod(ctx context.Context, cb *models.CallbackQuery, raw string) string {
	chatID, ok := callbackChatID(cb)
	if !ok {
		return ""
	}

	m, err := payment.ParseMethod(raw)
	if err != nil {
		return "Неизвестный способ выплаты"
	}

	session, err := b.states.Choose(chatID, m)
	if err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("wizard transition")
		return "Начни заново: /start"
	}

	switch session.State {
	case StateDone:
		b.saveProfile(ctx, chatID, cb.From.ID, m, "", cb)
	case StateAwaitingCardDigits:
		b.editMessage(ctx, cb.Message, "🔢 Введи 16-значный номер банковской карты:", nil)
	case StateAwaitingUsdtAddress:
		b.editMessage(ctx, cb.Message, "🪙 Введи адрес кошелька USDT (TRC-20):", nil)
	}
	return ""
}

func (b *Bot) handleClearDB(ctx context.Context, cb *models.CallbackQuery, confirmed bool) string {
	if !b.cfg.IsAdmin(cb.From.ID) {
		return "Недостаточно прав"
	}

	if !confirmed {
		b.editMessage(ctx, cb.Message, "Очистка отменена.", nil)
		return ""
	}

	cleared, err := b.store.ClearProfiles(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("clear profiles")
		b.editMessage(ctx, cb.Message, "❌ Не удалось очистить базу.", nil)
		return ""
	}

	b.log.Warn().Int64("admin_id", cb.From.ID).Int64("cleared", cleared).Msg("payment profiles cleared")
	b.editMessage(ctx, cb.Message, fmt.Sprintf("🗑 База очищена. Удалено записей: <b>%d</b>", cleared), nil)
	return ""
}

func (b *Bot) handleDecision(ctx context.Context, cb *models.CallbackQuery) string {
	if cb.Message.Message == nil {
		return "Сообщение недоступно"
	}
	msg := cb.Message.Message

	if msg.Chat.ID != b.cfg.AdminChatID && !b.cfg.IsAdmin(cb.From.ID) {
		return "Недостаточно прав"
	}

	action, userID, err := review.ParseCallback(cb.Data)
	if err != nil {
		b.log.Warn().Str("data", cb.Data).Msg("bad decision callback")
		return "Некорректная кнопка"
	}

	actor := chat.SenderFromUser(&cb.From).Username
	if cb.From.Username != "" {
		actor = "@" + cb.From.Username
	}

	err = b.reviewer.Decide(ctx, review.Decision{
		Action:     action,
		UserID:     userID,
		ChatID:     msg.Chat.ID,
		MessageID:  msg.ID,
		ReportText: msg.Text,
		Actor:      actor,
	})
	switch {
	case errors.Is(err, review.ErrAlreadyDecided):
		return "Решение по этой заявке уже принято"
	case err != nil:
		b.log.Error().Err(err).Int64("user_id", userID).Msg("apply decision")
		return "Не удалось применить решение"
	}
	return ""
}

// --- Helpers ---

func callbackChatID(cb *models.CallbackQuery) (int64, bool) {
	if cb.Message.Message == nil {
		return 0, false
	}
	return cb.Message.Message.Chat.ID, true
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.api.SendMessage(ctx, params)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.api.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error().Err(err).Msg("edit message")
	}
}
