package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/turnixpro/turnix/config"
	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/utils"
)

// ErrLockBusy is returned when another holder owns a lock
var ErrLockBusy = errors.New("lock busy")

// GestionCache keeps a short-lived copy of the full gestion listing and hands out named locks
// shared by every instance pointing at the same redis.
type GestionCache interface {
	Get(ctx context.Context) ([]models.Gestion, bool, error)
	Set(ctx context.Context, gestiones []models.Gestion) error
	Invalidate(ctx context.Context) error
	Lock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// RedisGestionCache implements GestionCache on go-redis
type RedisGestionCache struct {
	rc  *redis.Client
	cfg *config.CacheConfig
}

func NewRedisGestionCache(rc *redis.Client, cfg *config.CacheConfig) GestionCache {
	return &RedisGestionCache{rc: rc, cfg: cfg}
}

func (c *RedisGestionCache) key(name string) string {
	return c.cfg.RedisPrefix + name
}

func (c *RedisGestionCache) Get(ctx context.Context) ([]models.Gestion, bool, error) {
	bs, err := c.rc.Get(ctx, c.key(utils.GestionesCacheKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var gestiones []models.Gestion
	if err := json.Unmarshal(bs, &gestiones); err != nil {
		// a corrupt entry behaves like a miss
		return nil, false, nil
	}
	return gestiones, true, nil
}

func (c *RedisGestionCache) Set(ctx context.Context, gestiones []models.Gestion) error {
	bs, err := json.Marshal(gestiones)
	if err != nil {
		return fmt.Errorf("marshal gestiones: %w", err)
	}
	if err := c.rc.Set(ctx, c.key(utils.GestionesCacheKey), bs, c.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisGestionCache) Invalidate(ctx context.Context) error {
	if err := c.rc.Del(ctx, c.key(utils.GestionesCacheKey)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Lock acquires name with SETNX and a TTL; the returned func releases it
func (c *RedisGestionCache) Lock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	lockKey := c.key(name)
	ok, err := c.rc.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, ErrLockBusy
	}
	return func() {
		_ = c.rc.Del(context.Background(), lockKey).Err()
	}, nil
}

// NoopGestionCache is used when caching is disabled: every Get misses and locks always succeed
type NoopGestionCache struct{}

func NewNoopGestionCache() GestionCache {
	return NoopGestionCache{}
}

func (NoopGestionCache) Get(context.Context) ([]models.Gestion, bool, error) { return nil, false, nil }
func (NoopGestionCache) Set(context.Context, []models.Gestion) error         { return nil }
func (NoopGestionCache) Invalidate(context.Context) error                    { return nil }
func (NoopGestionCache) Lock(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
