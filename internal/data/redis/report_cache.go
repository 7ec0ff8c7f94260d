// Package redis caches derived statements. Every key embeds a generation number that
// each committed posting increments, so statements from before a commit are never served
// after its invalidation and never need to be deleted one by one.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the prefix of every report cache key
	KeyPrefix = "ledger:report:"

	generationKey = KeyPrefix + "generation"

	// DefaultTTL bounds how long a statement survives without any posting
	DefaultTTL = 5 * time.Minute
)

// Commands is the subset of the go-redis client the cache uses
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// ReportCache stores JSON encoded statements keyed by name, parameters and generation
type ReportCache struct {
	client Commands
	ttl    time.Duration
	logger *slog.Logger
}

func NewReportCache(client Commands, ttl time.Duration, logger *slog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "report_cache"),
	}
}

func (c *ReportCache) generation(ctx context.Context) (int64, error) {
	val, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache generation %q: %w", val, err)
	}
	return gen, nil
}

func (c *ReportCache) key(gen int64, key string) string {
	return fmt.Sprintf("%s%d:%s", KeyPrefix, gen, key)
}

// Get decodes the cached value of key into dest and reports whether it was found. It also
// returns the generation it looked in; a statement built after this call must be stored
// under that generation, so a posting committed meanwhile leaves it unreachable.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Error("cache error", "operation", "generation", "error", err)
		return 0, false, err
	}

	val, err := c.client.Get(ctx, c.key(gen, key)).Result()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "key", key, "generation", gen)
		return gen, false, nil
	}
	if err != nil {
		c.logger.Error("cache error", "operation", "get", "key", key, "error", err)
		return gen, false, fmt.Errorf("failed to get cached report: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return gen, false, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}

	c.logger.Debug("cache hit", "key", key, "generation", gen)
	return gen, true, nil
}

// Set stores value under key for generation gen, the one the matching Get returned
func (c *ReportCache) Set(ctx context.Context, gen int64, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := c.client.Set(ctx, c.key(gen, key), data, c.ttl).Err(); err != nil {
		c.logger.Error("cache error", "operation", "set", "key", key, "error", err)
		return fmt.Errorf("failed to set cached report: %w", err)
	}
	return nil
}

// Invalidate moves every reader to a fresh generation
func (c *ReportCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		c.logger.Error("cache error", "operation", "invalidate", "error", err)
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	c.logger.Debug("report cache invalidated", "generation", gen)
	return nil
}
