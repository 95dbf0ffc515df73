package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"splitledger/ledger"
)

// BalanceCache memoizes balance summaries per user and ledger head. Any
// append moves the head, so stale entries are never read; they expire with
// the TTL. A nil client disables the cache.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewBalanceCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl, log: log}
}

func key(userID uuid.UUID, head uint64) string {
	return fmt.Sprintf("balances:%s:%d", userID, head)
}

// Get returns the cached summary. Redis failures count as misses.
func (c *BalanceCache) Get(ctx context.Context, userID uuid.UUID, head uint64) (ledger.Summary, bool) {
	if c == nil || c.client == nil {
		return ledger.Summary{}, false
	}

	raw, err := c.client.Get(ctx, key(userID, head)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("balance cache read failed", zap.Stringer("user_id", userID), zap.Error(err))
		}
		return ledger.Summary{}, false
	}

	var s ledger.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		c.log.Warn("balance cache entry corrupt", zap.Stringer("user_id", userID), zap.Error(err))
		return ledger.Summary{}, false
	}
	return s, true
}

func (c *BalanceCache) Set(ctx context.Context, head uint64, s ledger.Summary) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(s)
	if err != nil {
		c.log.Warn("balance cache encode failed", zap.Stringer("user_id", s.UserID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key(s.UserID, head), raw, c.ttl).Err(); err != nil {
		c.log.Warn("balance cache write failed", zap.Stringer("user_id", s.UserID), zap.Error(err))
	}
}
