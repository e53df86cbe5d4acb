package domain

import "time"

// Resource paths of the trouble ticket API. A ticket's href is derived from
// ResourcePath and its id, so the router must mount the collection here.
const (
	APIBasePath  = "/tmf-api/troubleTicket/v5"
	ResourcePath = APIBasePath + "/troubleTicket"
)

// Creation defaults and priority bounds.
const (
	DefaultSeverity = SeverityMinor
	DefaultType     = TicketTypeTrouble
	DefaultPriority = 3
	MinPriority     = 1
	MaxPriority     = 5
)

// Severity classifies business impact independently of workflow state.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Severities lists the accepted severity values.
var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	for _, candidate := range Severities {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketType enumerates the kinds of reports a ticket can carry.
type TicketType string

const (
	TicketTypeTrouble   TicketType = "trouble"
	TicketTypeIncident  TicketType = "incident"
	TicketTypeRequest   TicketType = "request"
	TicketTypeComplaint TicketType = "complaint"
	TicketTypeFeedback  TicketType = "feedback"
)

// TicketTypes lists the accepted ticket types.
var TicketTypes = []TicketType{
	TicketTypeTrouble,
	TicketTypeIncident,
	TicketTypeRequest,
	TicketTypeComplaint,
	TicketTypeFeedback,
}

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	for _, candidate := range TicketTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// TicketStatus enumerates lifecycle states for tickets. Any status may follow
// any other; only entry into a terminal status carries a side effect.
type TicketStatus string

const (
	TicketStatusAcknowledged TicketStatus = "acknowledged"
	TicketStatusPending      TicketStatus = "pending"
	TicketStatusInProgress   TicketStatus = "inProgress"
	TicketStatusResolved     TicketStatus = "resolved"
	TicketStatusClosed       TicketStatus = "closed"
)

// TicketStatuses lists the accepted statuses.
var TicketStatuses = []TicketStatus{
	TicketStatusAcknowledged,
	TicketStatusPending,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is resolved or closed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Ticket is the trouble ticket aggregate.
type Ticket struct {
	ID                     string
	Href                   string
	Description            string
	Severity               Severity
	Priority               int
	Type                   TicketType
	Status                 TicketStatus
	CreationDate           time.Time
	ExpectedResolutionDate *time.Time
	ResolutionDate         *time.Time
	LastUpdate             time.Time
	Channel                *string
	ExternalID             *string
}

// TicketHref returns the retrieval path of the ticket with the given id.
func TicketHref(id string) string {
	return ResourcePath + "/" + id
}

// Clone returns a deep copy so callers never share pointers with the store.
func (t Ticket) Clone() Ticket {
	out := t
	out.ExpectedResolutionDate = cloneTime(t.ExpectedResolutionDate)
	out.ResolutionDate = cloneTime(t.ResolutionDate)
	out.Channel = cloneString(t.Channel)
	out.ExternalID = cloneString(t.ExternalID)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
