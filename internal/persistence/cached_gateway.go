package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const collectionKeyPrefix = "collection:"

// CachedGateway serves loads from redis and falls back to the primary gateway.
// Saves go to the primary first and then drop the cached copy.
type CachedGateway struct {
	primary Gateway
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

func NewCachedGateway(primary Gateway, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedGateway {
	return &CachedGateway{primary: primary, client: client, ttl: ttl, logger: logger}
}

func collectionKey(name string) string {
	return collectionKeyPrefix + name
}

func (c *CachedGateway) Load(ctx context.Context, name string) ([]byte, error) {
	cached, err := c.client.Get(ctx, collectionKey(name)).Bytes()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("collection cache read failed", zap.String("collection", name), zap.Error(err))
	}

	doc, err := c.primary.Load(ctx, name)
	if err != nil || doc == nil {
		return doc, err
	}
	if err := c.client.Set(ctx, collectionKey(name), doc, c.ttl).Err(); err != nil {
		c.logger.Warn("collection cache fill failed", zap.String("collection", name), zap.Error(err))
	}
	return doc, nil
}

func (c *CachedGateway) Save(ctx context.Context, name string, doc []byte) error {
	if err := c.primary.Save(ctx, name, doc); err != nil {
		return err
	}
	if err := c.client.Del(ctx, collectionKey(name)).Err(); err != nil {
		c.logger.Warn("collection cache invalidation failed", zap.String("collection", name), zap.Error(err))
	}
	return nil
}
