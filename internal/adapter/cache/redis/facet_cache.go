package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/config"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const facetKeyPrefix = "catalog:facets:"

func NewRedisClient(cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", cfg.Address))
	return rdb, nil
}

// FacetCache keeps facet counts per snapshot version. A new snapshot gets a new
// version, so entries never need invalidation; the TTL only bounds memory.
type FacetCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewFacetCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *FacetCache {
	return &FacetCache{
		client: client,
		ttl:    ttl,
		logger: log.Named("RedisFacetCache"),
	}
}

func facetKey(version string) string {
	return facetKeyPrefix + version
}

func (c *FacetCache) Get(ctx context.Context, version string) (domain.FacetCounts, error) {
	key := facetKey(version)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		c.logger.Error("Redis Get operation failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("FacetCache.Get for key '%s': %w", key, err)
	}
	counts, err := decodeCounts(data)
	if err != nil {
		return nil, fmt.Errorf("FacetCache.Get for key '%s': %w", key, err)
	}
	return counts, nil
}

func (c *FacetCache) Set(ctx context.Context, version string, counts domain.FacetCounts) error {
	key := facetKey(version)
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("FacetCache.Set marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Redis Set operation failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("FacetCache.Set for key '%s': %w", key, err)
	}
	c.logger.Debug("Redis Set operation successful", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}

// decodeCounts rejects payloads naming unknown categories and fills in missing ones with zero.
func decodeCounts(data []byte) (domain.FacetCounts, error) {
	var raw map[domain.Category]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode facet counts: %w", err)
	}
	counts := make(domain.FacetCounts, len(domain.Categories))
	for _, cat := range domain.Categories {
		counts[cat] = 0
	}
	for cat, n := range raw {
		if !cat.IsValid() {
			return nil, fmt.Errorf("decode facet counts: unknown category %q", cat)
		}
		counts[cat] = n
	}
	return counts, nil
}
