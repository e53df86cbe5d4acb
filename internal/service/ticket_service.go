package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/clock"
	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/events"
	"github.com/spec-kit/trouble-ticket/internal/repository"
	"github.com/spec-kit/trouble-ticket/internal/validation"
	"github.com/spec-kit/trouble-ticket/pkg/util/errorutil"
)

const ticketResource = "trouble ticket"

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets      repository.TicketRepository
	dispatcher   events.Dispatcher
	clock        clock.Clock
	newID        func() string
	defaultLimit int
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service. Only
// TicketRepo is required.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	Dispatcher       events.Dispatcher
	Clock            clock.Clock
	IDGenerator      func() string
	DefaultListLimit int
	Logger           *zap.Logger
}

// TicketCreateInput describes ticket creation payload. Nil fields take their
// defaults.
type TicketCreateInput struct {
	Description            string               `validate:"notblank"`
	Severity               *domain.Severity     `validate:"omitempty,ticket_severity"`
	Priority               *int                 `validate:"omitempty,min=1,max=5"`
	Type                   *domain.TicketType   `validate:"omitempty,ticket_type"`
	Channel                *string
	ExternalID             *string
	ExpectedResolutionDate *time.Time
}

// TicketListFilter describes collection listing filters.
type TicketListFilter struct {
	Severity *domain.Severity
	Status   *domain.TicketStatus
	Limit    int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:      deps.TicketRepo,
		dispatcher:   deps.Dispatcher,
		clock:        deps.Clock,
		newID:        deps.IDGenerator,
		defaultLimit: deps.DefaultListLimit,
		logger:       deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = clock.Real()
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	if svc.defaultLimit <= 0 {
		svc.defaultLimit = 100
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// CreateTicket validates input, applies defaults and persists a new ticket in
// the acknowledged state.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if fields := validation.Struct(input); len(fields) > 0 {
		return nil, invalidTicket(fields)
	}

	now := s.clock.Now()
	id := s.newID()
	ticket := &domain.Ticket{
		ID:                     id,
		Href:                   domain.TicketHref(id),
		Description:            input.Description,
		Severity:               domain.DefaultSeverity,
		Priority:               domain.DefaultPriority,
		Type:                   domain.DefaultType,
		Status:                 domain.TicketStatusAcknowledged,
		CreationDate:           now,
		LastUpdate:             now,
		ExpectedResolutionDate: input.ExpectedResolutionDate,
		Channel:                input.Channel,
		ExternalID:             input.ExternalID,
	}
	if input.Severity != nil {
		ticket.Severity = *input.Severity
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if input.Type != nil {
		ticket.Type = *input.Type
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Severity: ticket.Severity,
			Priority: ticket.Priority,
			Type:     ticket.Type,
			Channel:  ticket.Channel,
		},
	})
	return ticket, nil
}

// GetTicket returns the ticket with the given id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id, "get ticket")
	}
	return ticket, nil
}

// ListTickets returns tickets matching every provided filter, in store order,
// truncated to the limit. A non-positive limit uses the default.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Severity: filter.Severity,
		Status:   filter.Status,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateTicket applies patch to the ticket as one serialized read-modify-write.
// Entering resolved or closed stamps resolutionDate unless it was already set
// or the patch carries its own value.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if fields := validatePatch(patch); len(fields) > 0 {
		return nil, invalidTicket(fields)
	}

	var outcome domain.PatchOutcome
	ticket, err := s.tickets.Modify(ctx, id, func(ticket *domain.Ticket) error {
		outcome = ticket.ApplyPatch(patch, s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, id, "update ticket")
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload:  events.TicketUpdatedPayload{Fields: outcome.Fields},
	})
	if outcome.StatusChanged {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: outcome.PreviousStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	if outcome.AutoResolved && ticket.ResolutionDate != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketResolved,
			TicketID: ticket.ID,
			Payload: events.TicketResolvedPayload{
				Status:         ticket.Status,
				ResolutionDate: *ticket.ResolutionDate,
			},
		})
	}
	return ticket, nil
}

// DeleteTicket removes the ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, id, "delete ticket")
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Payload:  events.TicketDeletedPayload{},
	})
	return nil
}

// Ping checks the backing store.
func (s *TicketService) Ping(ctx context.Context) error {
	return s.tickets.Ping(ctx)
}

func validatePatch(patch domain.TicketPatch) map[string]string {
	fields := map[string]string{}
	if patch.Description.Set {
		if patch.Description.Null {
			fields["description"] = "description cannot be null"
		} else if msg := validation.Var("description", patch.Description.Value, validation.TagNotBlank); msg != "" {
			fields["description"] = msg
		}
	}
	if patch.Severity.Set {
		if patch.Severity.Null {
			fields["severity"] = "severity cannot be null"
		} else if msg := validation.Var("severity", string(patch.Severity.Value), validation.TagSeverity); msg != "" {
			fields["severity"] = msg
		}
	}
	if patch.Priority.Set {
		if patch.Priority.Null {
			fields["priority"] = "priority cannot be null"
		} else if msg := validation.Var("priority", patch.Priority.Value, "min=1,max=5"); msg != "" {
			fields["priority"] = msg
		}
	}
	if patch.Status.Set {
		if patch.Status.Null {
			fields["status"] = "status cannot be null"
		} else if msg := validation.Var("status", string(patch.Status.Value), validation.TagStatus); msg != "" {
			fields["status"] = msg
		}
	}
	// resolutionDate and expectedResolutionDate accept explicit null.
	return fields
}

func invalidTicket(fields map[string]string) error {
	return errorutil.NewValidationError("invalid trouble ticket", map[string]any{"fields": fields})
}

func mapRepositoryError(err error, id, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errorutil.NewNotFound(ticketResource, map[string]any{"id": id})
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
