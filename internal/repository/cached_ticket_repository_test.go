package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

type fakeCacheStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
	failGet bool
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: make(map[string][]byte)}
}

func (f *fakeCacheStore) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet {
		return nil, false, errors.New("cache unavailable")
	}
	data, ok := f.entries[key]
	if ok {
		f.hits++
	}
	return data, ok, nil
}

func (f *fakeCacheStore) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCacheStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeCacheStore) Ping(context.Context) error { return nil }

func (f *fakeCacheStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func TestCachedTicketRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) TicketRepository {
		return NewCachedTicketRepository(NewMemoryTicketRepository(), newFakeCacheStore(), time.Minute, nil)
	})
}

func TestCachedTicketRepositoryReadThrough(t *testing.T) {
	cache := newFakeCacheStore()
	repo := NewCachedTicketRepository(NewMemoryTicketRepository(), cache, time.Minute, nil)
	ctx := context.Background()

	expected := contractTime.Add(90 * time.Minute)
	ticket := contractTicket("rt-1", domain.SeverityCritical, domain.TicketStatusAcknowledged)
	ticket.ExpectedResolutionDate = &expected
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.GetByID(ctx, "rt-1"); err != nil {
		t.Fatalf("first GetByID: %v", err)
	}
	if !cache.has(ticketCacheKey("rt-1")) {
		t.Fatal("ticket was not cached after first read")
	}

	got, err := repo.GetByID(ctx, "rt-1")
	if err != nil {
		t.Fatalf("second GetByID: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
	if got.ExpectedResolutionDate == nil || !got.ExpectedResolutionDate.Equal(expected) {
		t.Errorf("cached ExpectedResolutionDate = %v, want %v", got.ExpectedResolutionDate, expected)
	}
	if got.ResolutionDate != nil {
		t.Errorf("cached ResolutionDate = %v, want nil", got.ResolutionDate)
	}
}

func TestCachedTicketRepositoryInvalidatesOnWrite(t *testing.T) {
	cache := newFakeCacheStore()
	repo := NewCachedTicketRepository(NewMemoryTicketRepository(), cache, time.Minute, nil)
	ctx := context.Background()

	if err := repo.Create(ctx, contractTicket("inv-1", domain.SeverityMinor, domain.TicketStatusPending)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.GetByID(ctx, "inv-1"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if _, err := repo.Modify(ctx, "inv-1", func(ticket *domain.Ticket) error {
		ticket.Status = domain.TicketStatusInProgress
		return nil
	}); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if cache.has(ticketCacheKey("inv-1")) {
		t.Fatal("cache entry survived Modify")
	}

	got, err := repo.GetByID(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.TicketStatusInProgress {
		t.Errorf("Status = %q, want inProgress", got.Status)
	}

	if err := repo.Delete(ctx, "inv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cache.has(ticketCacheKey("inv-1")) {
		t.Fatal("cache entry survived Delete")
	}
	if _, err := repo.GetByID(ctx, "inv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
}

func TestCachedTicketRepositoryFallsBackWhenCacheFails(t *testing.T) {
	cache := newFakeCacheStore()
	cache.failGet = true
	repo := NewCachedTicketRepository(NewMemoryTicketRepository(), cache, time.Minute, nil)
	ctx := context.Background()

	if err := repo.Create(ctx, contractTicket("fb-1", domain.SeverityMinor, domain.TicketStatusPending)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.GetByID(ctx, "fb-1"); err != nil {
		t.Fatalf("GetByID with failing cache: %v", err)
	}
}

func TestCachedTicketRepositoryDropsCorruptEntries(t *testing.T) {
	cache := newFakeCacheStore()
	repo := NewCachedTicketRepository(NewMemoryTicketRepository(), cache, time.Minute, nil)
	ctx := context.Background()

	if err := repo.Create(ctx, contractTicket("bad-1", domain.SeverityMinor, domain.TicketStatusPending)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cache.entries[ticketCacheKey("bad-1")] = []byte{0xff, 0x00}

	got, err := repo.GetByID(ctx, "bad-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != "bad-1" {
		t.Errorf("ID = %q, want bad-1", got.ID)
	}
}
