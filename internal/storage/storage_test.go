package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/clip-review-bot/internal/payment"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertProfileLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProfile(ctx, Profile{UserID: 7, Method: payment.MethodCard, Details: "4111111111111111"}))
	require.NoError(t, s.UpsertProfile(ctx, Profile{UserID: 7, Method: payment.MethodUSDT, Details: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"}))

	var rows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM users WHERE user_id = $1", 7).Scan(&rows))
	assert.Equal(t, 1, rows)

	var method, details string
	require.NoError(t, s.db.QueryRow(
		"SELECT payment_method, payment_details FROM users WHERE user_id = $1", 7,
	).Scan(&method, &details))
	assert.Equal(t, "usdt", method)
	assert.Equal(t, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", details)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.GetProfile(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := s.HasProfile(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertProfile(ctx, Profile{UserID: 1, Method: payment.MethodSite}))

	p, err := s.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, payment.MethodSite, p.Method)
	assert.Empty(t, p.Details)

	ok, err = s.HasProfile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClearProfiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, s.UpsertProfile(ctx, Profile{UserID: id, Method: payment.MethodSite}))
	}

	count, err := s.CountProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	cleared, err := s.ClearProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)

	count, err = s.CountProfiles(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "twice.db")

	s1, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s1.UpsertProfile(ctx, Profile{UserID: 5, Method: payment.MethodSite}))
	require.NoError(t, s1.Close())

	s2, err := New(ctx, path)
	require.NoError(t, err)
	defer s2.Close()

	count, err := s2.CountProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
