package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DecisionGuard records decided admin messages in Redis so a decision is
// applied once even across bot replicas.
type DecisionGuard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewDecisionGuard(rdb *redis.Client, prefix string, ttl time.Duration) *DecisionGuard {
	return &DecisionGuard{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Claim returns true for the first caller per admin message.
func (g *DecisionGuard) Claim(ctx context.Context, chatID int64, messageID int) (bool, error) {
	key := fmt.Sprintf("%s:%d:%d", g.prefix, chatID, messageID)
	ok, err := g.rdb.SetNX(ctx, key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}
