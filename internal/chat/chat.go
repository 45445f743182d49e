// Package chat holds the slice of the Telegram Bot API the pipeline talks to.
// *bot.Bot satisfies Messenger.
package chat

import (
	"context"
	"fmt"
	"html"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Messenger sends and edits chat messages.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

var _ Messenger = (*bot.Bot)(nil)

// Sender identifies the user behind a message or callback.
type Sender struct {
	ID       int64
	Username string
}

// SenderFromUser picks the username, falling back to the first name.
func SenderFromUser(u *models.User) Sender {
	if u == nil {
		return Sender{}
	}
	name := u.Username
	if name == "" {
		name = u.FirstName
	}
	return Sender{ID: u.ID, Username: name}
}

// Mention renders an HTML link to the user's profile.
func Mention(userID int64, name string) string {
	if name == "" {
		name = fmt.Sprintf("id%d", userID)
	}
	return fmt.Sprintf("<a href='tg://user?id=%d'>%s</a>", userID, html.EscapeString(name))
}
