package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// Editor edits a message in place
type Editor interface {
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

const barWidth = 10

// BarFrames returns a filling bar animation that loops back to empty
func BarFrames(title string) []string {
	frames := make([]string, 0, barWidth+1)
	for i := 0; i <= barWidth; i++ {
		bar := strings.Repeat("▰", i) + strings.Repeat("▱", barWidth-i)
		frames = append(frames, fmt.Sprintf("%s\n%s %d%%", title, bar, i*100/barWidth))
	}
	return frames
}

// Indicator animates a "please wait" message
type Indicator struct {
	editor   Editor
	frames   []string
	interval time.Duration
	log      zerolog.Logger
}

func New(editor Editor, frames []string, interval time.Duration, log zerolog.Logger) *Indicator {
	return &Indicator{
		editor:   editor,
		frames:   frames,
		interval: interval,
		log:      log,
	}
}

// Run edits the message with the next frame every interval until ctx is
// cancelled. A failed edit ends the animation quietly.
func (i *Indicator) Run(ctx context.Context, chatID int64, messageID int) {
	if len(i.frames) == 0 {
		return
	}

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		_, err := i.editor.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      i.frames[n%len(i.frames)],
		})
		if err != nil {
			if ctx.Err() == nil {
				i.log.Debug().Err(err).Int("message_id", messageID).Msg("progress edit failed, stopping")
			}
			return
		}
	}
}
