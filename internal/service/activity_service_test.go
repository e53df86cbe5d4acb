package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/events"
	"github.com/spec-kit/trouble-ticket/internal/observability"
	"github.com/spec-kit/trouble-ticket/internal/repository"
)

func TestActivityServiceCountsLifecycleEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	NewActivityService(dispatcher, zap.NewNop(), metrics).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: dispatcher,
	})
	ctx := context.Background()
	ticket, err := svc.CreateTicket(ctx, TicketCreateInput{Description: "d"})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if _, err := svc.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{Status: domain.Some(domain.TicketStatusClosed)}); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if err := svc.DeleteTicket(ctx, ticket.ID); err != nil {
		t.Fatalf("DeleteTicket: %v", err)
	}

	counts := metrics.Snapshot().Events
	for _, et := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketStatusChanged,
		events.EventTicketResolved,
		events.EventTicketDeleted,
	} {
		if counts[string(et)] != 1 {
			t.Errorf("%s count = %d, want 1", et, counts[string(et)])
		}
	}
}
