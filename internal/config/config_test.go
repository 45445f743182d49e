package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "-100500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(-100500), cfg.AdminChatID)
	assert.Equal(t, int64(-100500), cfg.AdminID)
	assert.Equal(t, "video_tasks", cfg.QueueName)
	assert.Equal(t, DispatchQueue, cfg.DispatchMode)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "https://www.googleapis.com/youtube/v3", cfg.YouTubeAPIBaseURL)
}

func TestLoadSeparateAdmin(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "-100500")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("DISPATCH_MODE", " Inline ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(-100500))
	assert.Equal(t, DispatchInline, cfg.DispatchMode)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ADMIN_CHAT_ID", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		BotToken:          "t",
		AdminChatID:       1,
		DispatchMode:      "carrier-pigeon",
		FetchTimeout:      0,
		ProgressInterval:  time.Second,
		WorkerConcurrency: 1,
		QueueName:         "q",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISPATCH_MODE")
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}
