package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
)

// OpenGateway builds the gateway selected by cfg.Store, wrapping it in the
// redis cache when enabled.
func OpenGateway(ctx context.Context, cfg config.StoreConfig, pg *Postgres, rdb *Redis, logger *zap.Logger) (Gateway, error) {
	var gw Gateway
	switch cfg.Backend {
	case config.StoreBackendFile, "":
		fg, err := NewFileGateway(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		gw = fg
	case config.StoreBackendPostgres:
		if !pg.Enabled() {
			return nil, errors.New("postgres store selected but POSTGRES_DSN is empty")
		}
		gw = NewPostgresGateway(pg.Pool)
	case config.StoreBackendMemory:
		gw = NewMemoryGateway()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	logger.Info("collection store ready", zap.String("backend", cfg.Backend))

	if cfg.CacheEnabled {
		if err := rdb.Ping(ctx); err != nil {
			logger.Warn("collection cache disabled; redis unreachable", zap.Error(err))
			return gw, nil
		}
		return NewCachedGateway(gw, rdb.Client, cfg.CacheTTL(), logger), nil
	}
	return gw, nil
}
