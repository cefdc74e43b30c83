// Package cache provides a Redis read-through accelerator for balance
// lookups. Cached values are never authoritative: writes do not invalidate
// them, so a balance may lag the store by up to the configured TTL. Callers
// that need the durable value must read the store directly.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "wallet:"

// DefaultTTL bounds how stale a cached balance may be.
const DefaultTTL = 60 * time.Second

// BalanceCache stores wallet balances as fixed-point strings under
// "wallet:<uuid>" keys with a bounded TTL.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a balance cache over the shared Redis client. A non-positive
// ttl falls back to DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BalanceCache{client: client, ttl: ttl}
}

// Get returns the cached balance for the wallet. The second return value
// reports whether the key was present.
func (c *BalanceCache) Get(ctx context.Context, id uuid.UUID) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, keyFor(id)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("cache get %s: %w", id, err)
	}
	balance, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("cache get %s: parse %q: %w", id, val, err)
	}
	return balance, true, nil
}

// Put stores the balance under the wallet key with the cache TTL.
func (c *BalanceCache) Put(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if err := c.client.Set(ctx, keyFor(id), balance.StringFixed(2), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", id, err)
	}
	return nil
}

func keyFor(id uuid.UUID) string {
	return keyPrefix + id.String()
}
