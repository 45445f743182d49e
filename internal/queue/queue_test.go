package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	q := New(rdb, "video_tasks")

	first := NewTask(1, "alice", "https://youtu.be/dQw4w9WgXcQ", 1, 10)
	second := NewTask(2, "bob", "https://www.tiktok.com/@bob/video/1", 2, 20)
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.UserID, got.UserID)
	assert.Equal(t, first.Username, got.Username)
	assert.Equal(t, first.VideoURL, got.VideoURL)
	assert.True(t, first.SubmittedAt.Equal(got.SubmittedAt))

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "bob", got.Username)
}

func TestDispatchHasNoFuture(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	q := New(rdb, "video_tasks")

	done, err := q.Dispatch(ctx, NewTask(1, "alice", "https://youtu.be/dQw4w9WgXcQ", 0, 0))
	require.NoError(t, err)
	assert.Nil(t, done)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDequeueEmpty(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := New(rdb, "video_tasks")

	_, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDequeueMalformed(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	q := New(rdb, "video_tasks")

	_, err := mr.Lpush("video_tasks", "{not json")
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, time.Second)
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "{not json", malformed.Payload)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecisionGuardClaimsOnce(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	g := NewDecisionGuard(rdb, "decided", time.Hour)

	ok, err := g.Claim(ctx, -100, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Claim(ctx, -100, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Claim(ctx, -100, 6)
	require.NoError(t, err)
	assert.True(t, ok)
}
