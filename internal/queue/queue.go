package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Dequeue when nothing arrived within the wait.
var ErrEmpty = errors.New("queue is empty")

// Dispatcher hands a task over for processing. A non-nil channel resolves
// with the processing outcome; nil means another process owns the outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) (<-chan error, error)
}

// Open connects to Redis by URL and pings it.
func Open(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Queue is a FIFO of tasks stored in a Redis list.
type Queue struct {
	rdb  *redis.Client
	name string
}

func New(rdb *redis.Client, name string) *Queue {
	return &Queue{rdb: rdb, name: name}
}

// Enqueue appends a task to the tail of the list.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", q.name, err)
	}
	return nil
}

// Dispatch enqueues the task; the worker process reports the outcome.
func (q *Queue) Dispatch(ctx context.Context, task Task) (<-chan error, error) {
	return nil, q.Enqueue(ctx, task)
}

// Dequeue blocks up to wait for the head of the list. Waits are rounded up
// to whole seconds by Redis; a zero wait blocks until an item arrives.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (Task, error) {
	res, err := q.rdb.BLPop(ctx, wait, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, ErrEmpty
	}
	if err != nil {
		return Task{}, fmt.Errorf("blpop %s: %w", q.name, err)
	}

	// BLPOP replies [key, value]
	if len(res) != 2 {
		return Task{}, fmt.Errorf("blpop %s: unexpected reply of %d items", q.name, len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return Task{}, &MalformedError{Payload: res[1], Err: err}
	}
	return task, nil
}

// Len returns the number of waiting tasks.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}

// MalformedError reports a payload that could not be decoded. The item is
// already removed from the list.
type MalformedError struct {
	Payload string
	Err     error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed task payload: %v", e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
