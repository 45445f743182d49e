package queue

import (
	"time"

	"github.com/google/uuid"
)

// Task is a submission travelling from intake to the worker.
// ChatID and MessageID point at the acknowledgment sent to the submitter.
type Task struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	VideoURL    string    `json:"video_url"`
	ChatID      int64     `json:"chat_id,omitempty"`
	MessageID   int       `json:"message_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewTask stamps a fresh id and submission time.
func NewTask(userID int64, username, videoURL string, chatID int64, messageID int) Task {
	return Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Username:    username,
		VideoURL:    videoURL,
		ChatID:      chatID,
		MessageID:   messageID,
		SubmittedAt: time.Now().UTC(),
	}
}
