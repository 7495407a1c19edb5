package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SummaryCache is the cache surface the reporting service depends on
type SummaryCache interface {
	Generation(ctx context.Context, groupID uuid.UUID) (int64, error)
	Get(ctx context.Context, groupID uuid.UUID, generation int64) ([]byte, bool, error)
	Set(ctx context.Context, groupID uuid.UUID, generation int64, payload []byte) error
	Bump(ctx context.Context, groupID uuid.UUID) error
	Close() error
}

var (
	_ SummaryCache = (*RedisSummaryCache)(nil)
	_ SummaryCache = NopSummaryCache{}
)

// NewSummaryCache returns a Redis-backed cache when Redis and report caching
// are both enabled, and a no-op cache otherwise. A configured but unreachable
// Redis is an error so that misconfiguration surfaces at startup.
func NewSummaryCache(ctx context.Context, redisCfg config.RedisConfig, reportCfg config.ReportConfig, logger *zap.Logger) (SummaryCache, error) {
	if !redisCfg.Enabled || !reportCfg.CacheEnabled {
		logger.Info("Summary cache disabled")
		return NopSummaryCache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Addr(), err)
	}

	logger.Info("Summary cache enabled",
		zap.String("addr", redisCfg.Addr()),
		zap.Duration("ttl", reportCfg.CacheTTL),
	)
	return NewRedisSummaryCache(client, reportCfg.CacheTTL), nil
}
