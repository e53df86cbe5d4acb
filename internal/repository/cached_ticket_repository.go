package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// CacheStore is a byte-oriented key/value cache with expiry. Satisfied by
// persistence.Redis.
type CacheStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

const ticketCacheKeyPrefix = "trouble_ticket:"

var (
	cacheEncMode cbor.EncMode
	cacheDecMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Keep nanoseconds; the default Unix-seconds encoding would truncate.
	encOptions.Time = cbor.TimeRFC3339Nano
	cacheEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("repository: CBOR encoder initialization failed: " + err.Error())
	}
	cacheDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("repository: CBOR decoder initialization failed: " + err.Error())
	}
}

type cachedTicketRepository struct {
	inner  TicketRepository
	cache  CacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketRepository wraps inner with a read-through cache of single
// tickets. Cache failures are logged and fall back to inner. Listing is never
// cached. Writes invalidate the entry after inner commits.
func NewCachedTicketRepository(inner TicketRepository, cache CacheStore, ttl time.Duration, logger *zap.Logger) TicketRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedTicketRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.inner.Create(ctx, ticket)
}

func (r *cachedTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if ticket, ok := r.lookup(ctx, id); ok {
		return ticket, nil
	}
	ticket, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, ticket)
	return ticket, nil
}

func (r *cachedTicketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	return r.inner.ListWithFilter(ctx, filter)
}

func (r *cachedTicketRepository) Modify(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	ticket, err := r.inner.Modify(ctx, id, mutate)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return ticket, nil
}

func (r *cachedTicketRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedTicketRepository) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

func (r *cachedTicketRepository) lookup(ctx context.Context, id string) (*domain.Ticket, bool) {
	data, ok, err := r.cache.GetBytes(ctx, ticketCacheKey(id))
	if err != nil {
		r.logger.Warn("ticket cache read failed", zap.String("ticket_id", id), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	ticket, err := decodeCachedTicket(data)
	if err != nil {
		r.logger.Warn("ticket cache entry undecodable", zap.String("ticket_id", id), zap.Error(err))
		r.invalidate(ctx, id)
		return nil, false
	}
	return ticket, true
}

func (r *cachedTicketRepository) store(ctx context.Context, ticket *domain.Ticket) {
	data, err := encodeCachedTicket(ticket)
	if err != nil {
		r.logger.Warn("ticket cache encode failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if err := r.cache.SetBytes(ctx, ticketCacheKey(ticket.ID), data, r.ttl); err != nil {
		r.logger.Warn("ticket cache write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (r *cachedTicketRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, ticketCacheKey(id)); err != nil {
		r.logger.Warn("ticket cache invalidation failed", zap.String("ticket_id", id), zap.Error(err))
	}
}

func ticketCacheKey(id string) string {
	return ticketCacheKeyPrefix + id
}

func encodeCachedTicket(ticket *domain.Ticket) ([]byte, error) {
	return cacheEncMode.Marshal(ticket)
}

func decodeCachedTicket(data []byte) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := cacheDecMode.Unmarshal(data, &ticket); err != nil {
		return nil, fmt.Errorf("decode cached ticket: %w", err)
	}
	normalizeTimes(&ticket)
	return &ticket, nil
}
