package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/config"
	"github.com/spec-kit/trouble-ticket/internal/persistence"
)

// These suites run against live servers and are skipped unless the matching
// environment variable points at one.

func TestPostgresTicketRepository(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	logger := zap.NewNop()

	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 8}, logger)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	t.Cleanup(pg.Close)

	if err := persistence.RunMigrations(ctx, pg.Pool, filepath.Join("..", "..", "migrations"), logger); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	runRepositoryContract(t, func(t *testing.T) TicketRepository {
		if _, err := pg.Pool.Exec(ctx, "TRUNCATE trouble_tickets"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewPostgresTicketRepository(pg.Pool)
	})
}

func TestMongoTicketRepository(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	db, err := persistence.NewMongo(ctx, config.MongoConfig{
		URI:      uri,
		Database: fmt.Sprintf("trouble_ticket_test_%d", time.Now().UnixNano()),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewMongo: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Database.Drop(context.Background())
		db.Close()
	})

	var n int
	runRepositoryContract(t, func(t *testing.T) TicketRepository {
		n++
		col := db.Collection(fmt.Sprintf("tickets_%d", n))
		if err := EnsureMongoIndexes(ctx, col); err != nil {
			t.Fatalf("EnsureMongoIndexes: %v", err)
		}
		return NewMongoTicketRepository(col)
	})
}

func TestRedisCachedTicketRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := persistence.NewRedis(config.RedisConfig{Addr: addr}, zap.NewNop())
	t.Cleanup(rdb.Close)
	if err := rdb.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	runRepositoryContract(t, func(t *testing.T) TicketRepository {
		// Keys are ticket ids shared across subtests; clear them first.
		if err := rdb.Client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("FlushDB: %v", err)
		}
		return NewCachedTicketRepository(NewMemoryTicketRepository(), rdb, time.Minute, zap.NewNop())
	})
}
