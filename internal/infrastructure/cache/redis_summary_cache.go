package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSummaryKeyPrefix = "hazina:summary:"

// RedisSummaryCache caches rendered contribution summaries in Redis.
//
// Entries are keyed by group and a per-group generation counter. Every write
// to the group's ledger bumps the counter, so an entry computed before the
// write can never be read after it; old generations simply expire.
type RedisSummaryCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSummaryCache creates a cache over an existing Redis client
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{
		client:    client,
		keyPrefix: defaultSummaryKeyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisSummaryCache) generationKey(groupID uuid.UUID) string {
	return c.keyPrefix + groupID.String() + ":gen"
}

func (c *RedisSummaryCache) entryKey(groupID uuid.UUID, generation int64) string {
	return fmt.Sprintf("%s%s:%d", c.keyPrefix, groupID, generation)
}

// Generation returns the group's current generation; 0 if never bumped
func (c *RedisSummaryCache) Generation(ctx context.Context, groupID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(groupID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read summary generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached payload for the given generation
func (c *RedisSummaryCache) Get(ctx context.Context, groupID uuid.UUID, generation int64) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.entryKey(groupID, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached summary: %w", err)
	}
	return payload, true, nil
}

// Set stores payload under the given generation with the configured TTL
func (c *RedisSummaryCache) Set(ctx context.Context, groupID uuid.UUID, generation int64, payload []byte) error {
	if err := c.client.Set(ctx, c.entryKey(groupID, generation), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// Bump advances the group's generation, invalidating every cached entry
func (c *RedisSummaryCache) Bump(ctx context.Context, groupID uuid.UUID) error {
	if err := c.client.Incr(ctx, c.generationKey(groupID)).Err(); err != nil {
		return fmt.Errorf("failed to bump summary generation: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}
