package events

import (
	"time"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticketId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Severity domain.Severity   `json:"severity"`
	Priority int               `json:"priority"`
	Type     domain.TicketType `json:"type"`
	Channel  *string           `json:"channel,omitempty"`
}

// TicketUpdatedPayload lists the patched fields.
type TicketUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"oldStatus"`
	NewStatus domain.TicketStatus `json:"newStatus"`
}

// TicketResolvedPayload is emitted when the resolution date is assigned
// automatically.
type TicketResolvedPayload struct {
	Status         domain.TicketStatus `json:"status"`
	ResolutionDate time.Time           `json:"resolutionDate"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct{}
