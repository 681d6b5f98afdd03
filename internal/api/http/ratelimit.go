package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/auth"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// windowCounter counts hits on key inside a fixed window.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	client *redis.Client
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	current, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if current == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return current, err
		}
	}
	return current, nil
}

// RateLimit caps interactions per actor per window using redis counters.
// Requests pass through when redis is unavailable.
func RateLimit(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	return rateLimit(redisCounter{client: client}, limit, window, logger)
}

func rateLimit(counter windowCounter, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "rate_limit:" + c.IP()
		if actor, ok := auth.ActorFromContext(c); ok {
			key = "rate_limit:actor:" + actor.ID
		}
		current, err := counter.Hit(c.UserContext(), key, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}
		if current > int64(limit) {
			return apperrors.NewTooManyRequests("too many requests; slow down")
		}
		return c.Next()
	}
}
