package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/config"
	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/persistence"
)

func newSQLiteTestRepository(t *testing.T) TicketRepository {
	t.Helper()
	db, err := persistence.NewSQLite(config.SQLiteConfig{
		Path:     filepath.Join(t.TempDir(), "tickets.db"),
		PoolSize: 4,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(db.Close)

	repo, err := NewSQLiteTicketRepository(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLiteTicketRepository: %v", err)
	}
	return repo
}

func TestSQLiteTicketRepository(t *testing.T) {
	runRepositoryContract(t, newSQLiteTestRepository)
}

func TestSQLiteTicketRepositoryKeepsNanoseconds(t *testing.T) {
	repo := newSQLiteTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 4, 2, 8, 30, 0, 123456789, time.UTC)
	ticket := contractTicket("nano", domain.SeverityMinor, domain.TicketStatusPending)
	ticket.CreationDate = created
	ticket.LastUpdate = created
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "nano")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.CreationDate.Equal(created) {
		t.Errorf("CreationDate = %v, want %v", got.CreationDate, created)
	}
	if got.CreationDate.Location() != time.UTC {
		t.Errorf("CreationDate location = %v, want UTC", got.CreationDate.Location())
	}
}

func TestSQLiteTicketRepositorySchemaIsIdempotent(t *testing.T) {
	db, err := persistence.NewSQLite(config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "tickets.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(db.Close)

	ctx := context.Background()
	first, err := NewSQLiteTicketRepository(ctx, db)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Create(ctx, contractTicket("keep", domain.SeverityMinor, domain.TicketStatusPending)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second, err := NewSQLiteTicketRepository(ctx, db)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if _, err := second.GetByID(ctx, "keep"); err != nil {
		t.Errorf("ticket lost after reopening schema: %v", err)
	}
}
