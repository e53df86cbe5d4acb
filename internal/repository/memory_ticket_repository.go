package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// memoryTicketRepository keeps tickets in insertion order behind one mutex.
// Every read returns a clone; every write stores a clone.
type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
	order   []string
}

// NewMemoryTicketRepository builds an empty in-process repository.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return fmt.Errorf("repository: duplicate ticket id %s", ticket.ID)
	}
	stored := ticket.Clone()
	r.tickets[ticket.ID] = &stored
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := stored.Clone()
	return &out, nil
}

func (r *memoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	limit := effectiveLimit(filter.Limit)

	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Ticket{}
	for _, id := range r.order {
		if len(result) >= limit {
			break
		}
		ticket := r.tickets[id]
		if filter.Severity != nil && ticket.Severity != *filter.Severity {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		result = append(result, ticket.Clone())
	}
	return result, nil
}

func (r *memoryTicketRepository) Modify(_ context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	working := stored.Clone()
	if err := mutate(&working); err != nil {
		return nil, err
	}
	persisted := working.Clone()
	r.tickets[id] = &persisted
	return &working, nil
}

func (r *memoryTicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.tickets, id)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryTicketRepository) Ping(context.Context) error {
	return nil
}
