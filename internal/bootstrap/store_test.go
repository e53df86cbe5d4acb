package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/config"
	"github.com/spec-kit/trouble-ticket/internal/domain"
)

func baseConfig(driver string) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: driver, DefaultListLimit: 100},
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(context.Background(), baseConfig(config.DriverMemory), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()
	if store.Cache != nil {
		t.Error("cache opened while disabled")
	}
	if err := store.Tickets.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpenStoreSQLitePersistsAcrossReopen(t *testing.T) {
	cfg := baseConfig(config.DriverSQLite)
	cfg.SQLite = config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "tickets.db"), PoolSize: 2}
	ctx := context.Background()

	store, err := OpenStore(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:           "persisted",
		Href:         domain.TicketHref("persisted"),
		Description:  "survives restart",
		Severity:     domain.SeverityMinor,
		Priority:     3,
		Type:         domain.TicketTypeTrouble,
		Status:       domain.TicketStatusAcknowledged,
		CreationDate: now,
		LastUpdate:   now,
	}
	if err := store.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.Close()

	reopened, err := OpenStore(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Tickets.GetByID(ctx, "persisted")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Description != "survives restart" {
		t.Errorf("Description = %q", got.Description)
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	store, err := OpenStore(context.Background(), baseConfig("cassandra"), zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
	if store != nil {
		t.Error("store returned alongside an error")
	}
}
