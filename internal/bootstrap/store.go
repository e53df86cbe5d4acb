// Package bootstrap opens the ticket store selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/config"
	"github.com/spec-kit/trouble-ticket/internal/persistence"
	"github.com/spec-kit/trouble-ticket/internal/repository"
)

// Store is an opened ticket repository and the connections behind it.
type Store struct {
	Tickets repository.TicketRepository
	// Cache is set when the Redis read-through cache is enabled.
	Cache *persistence.Redis

	closers []func()
}

// Close releases every connection in reverse opening order.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStore connects the configured driver, prepares its schema and wraps it
// with the cache when enabled. On error nothing is left open.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store *Store, err error) {
	store = &Store{}
	defer func() {
		if err != nil {
			store.Close()
			store = nil
		}
	}()

	switch cfg.Store.Driver {
	case config.DriverMemory:
		store.Tickets = repository.NewMemoryTicketRepository()

	case config.DriverSQLite:
		db, err := persistence.NewSQLite(cfg.SQLite, logger)
		if err != nil {
			return store, err
		}
		store.closers = append(store.closers, db.Close)
		if store.Tickets, err = repository.NewSQLiteTicketRepository(ctx, db); err != nil {
			return store, err
		}

	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return store, fmt.Errorf("connect postgres: %w", err)
		}
		store.closers = append(store.closers, pg.Close)
		if pg.PoolHandle() == nil {
			return store, fmt.Errorf("postgres driver selected without POSTGRES_DSN")
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				return store, fmt.Errorf("run migrations: %w", err)
			}
		}
		store.Tickets = repository.NewPostgresTicketRepository(pg.PoolHandle())

	case config.DriverMongo:
		db, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return store, fmt.Errorf("connect mongo: %w", err)
		}
		store.closers = append(store.closers, db.Close)
		col := db.Collection(cfg.Mongo.Collection)
		if err := repository.EnsureMongoIndexes(ctx, col); err != nil {
			return store, fmt.Errorf("create mongo indexes: %w", err)
		}
		store.Tickets = repository.NewMongoTicketRepository(col)

	default:
		return store, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.CacheEnabled {
		rdb := persistence.NewRedis(cfg.Redis, logger)
		store.closers = append(store.closers, rdb.Close)
		store.Cache = rdb
		store.Tickets = repository.NewCachedTicketRepository(store.Tickets, rdb, cfg.Redis.CacheTTL(), logger)
	}

	logger.Info("ticket store ready",
		zap.String("driver", cfg.Store.Driver),
		zap.Bool("cache", cfg.Redis.CacheEnabled))
	return store, nil
}
