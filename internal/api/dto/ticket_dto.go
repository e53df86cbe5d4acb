package dto

import (
	"time"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// CreateTroubleTicketRequest payload. Absent or null optional fields take
// their defaults.
type CreateTroubleTicketRequest struct {
	Description            string             `json:"description"`
	Severity               *domain.Severity   `json:"severity"`
	Priority               *int               `json:"priority"`
	Type                   *domain.TicketType `json:"type"`
	Channel                *string            `json:"channel"`
	ExternalID             *string            `json:"externalId"`
	ExpectedResolutionDate *time.Time         `json:"expectedResolutionDate"`
}

// UpdateTroubleTicketRequest payload. Keys missing from the document leave
// the field untouched; unknown keys are ignored.
type UpdateTroubleTicketRequest struct {
	Description            domain.Optional[string]              `json:"description"`
	Severity               domain.Optional[domain.Severity]     `json:"severity"`
	Priority               domain.Optional[int]                 `json:"priority"`
	Status                 domain.Optional[domain.TicketStatus] `json:"status"`
	ResolutionDate         domain.Optional[time.Time]           `json:"resolutionDate"`
	ExpectedResolutionDate domain.Optional[time.Time]           `json:"expectedResolutionDate"`
}

// Patch converts the request to a domain patch.
func (r UpdateTroubleTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		Description:            r.Description,
		Severity:               r.Severity,
		Priority:               r.Priority,
		Status:                 r.Status,
		ResolutionDate:         r.ResolutionDate,
		ExpectedResolutionDate: r.ExpectedResolutionDate,
	}
}

// TroubleTicketResponse is the wire form of a ticket. Unset optional fields
// render as null.
type TroubleTicketResponse struct {
	ID                     string              `json:"id"`
	Href                   string              `json:"href"`
	Description            string              `json:"description"`
	Severity               domain.Severity     `json:"severity"`
	Priority               int                 `json:"priority"`
	Type                   domain.TicketType   `json:"type"`
	Status                 domain.TicketStatus `json:"status"`
	CreationDate           time.Time           `json:"creationDate"`
	ExpectedResolutionDate *time.Time          `json:"expectedResolutionDate"`
	ResolutionDate         *time.Time          `json:"resolutionDate"`
	LastUpdate             time.Time           `json:"lastUpdate"`
	Channel                *string             `json:"channel"`
	ExternalID             *string             `json:"externalId"`
}

// NewTroubleTicketResponse maps a ticket to its wire form.
func NewTroubleTicketResponse(ticket *domain.Ticket) TroubleTicketResponse {
	return TroubleTicketResponse{
		ID:                     ticket.ID,
		Href:                   ticket.Href,
		Description:            ticket.Description,
		Severity:               ticket.Severity,
		Priority:               ticket.Priority,
		Type:                   ticket.Type,
		Status:                 ticket.Status,
		CreationDate:           ticket.CreationDate.UTC(),
		ExpectedResolutionDate: utc(ticket.ExpectedResolutionDate),
		ResolutionDate:         utc(ticket.ResolutionDate),
		LastUpdate:             ticket.LastUpdate.UTC(),
		Channel:                ticket.Channel,
		ExternalID:             ticket.ExternalID,
	}
}

// NewTroubleTicketList maps tickets to their wire form; never nil.
func NewTroubleTicketList(tickets []domain.Ticket) []TroubleTicketResponse {
	items := make([]TroubleTicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTroubleTicketResponse(&tickets[i]))
	}
	return items
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
