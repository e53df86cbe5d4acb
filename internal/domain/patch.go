package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional is a tri-state patch slot: absent, explicitly null, or a value.
// A zero Optional is absent. When decoded from JSON, a key that is missing
// from the document leaves the slot absent.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a slot carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a slot explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// HasValue reports whether the slot is present and non-null.
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// Ptr returns a pointer to a copy of the value, or nil when absent or null.
func (o Optional[T]) Ptr() *T {
	if !o.HasValue() {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON marks the slot as set and decodes null or the value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// TicketPatch enumerates the updatable fields of a ticket. Channel, external
// id, type and the server-managed dates have no slot and cannot be patched.
type TicketPatch struct {
	Description            Optional[string]
	Severity               Optional[Severity]
	Priority               Optional[int]
	Status                 Optional[TicketStatus]
	ResolutionDate         Optional[time.Time]
	ExpectedResolutionDate Optional[time.Time]
}

// PatchOutcome summarizes what ApplyPatch changed.
type PatchOutcome struct {
	Fields         []string
	PreviousStatus TicketStatus
	StatusChanged  bool
	AutoResolved   bool
}

// ApplyPatch applies every present slot of p to t, stamps LastUpdate and
// assigns ResolutionDate on entry into a terminal status when it was unset
// before the patch and the patch does not carry its own value.
//
// Callers validate p first; ApplyPatch copies present values verbatim.
func (t *Ticket) ApplyPatch(p TicketPatch, now time.Time) PatchOutcome {
	outcome := PatchOutcome{PreviousStatus: t.Status}
	resolvedBefore := t.ResolutionDate != nil

	if p.Description.Set {
		t.Description = p.Description.Value
		outcome.Fields = append(outcome.Fields, "description")
	}
	if p.Severity.Set {
		t.Severity = p.Severity.Value
		outcome.Fields = append(outcome.Fields, "severity")
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
		outcome.Fields = append(outcome.Fields, "priority")
	}
	if p.Status.Set {
		t.Status = p.Status.Value
		outcome.Fields = append(outcome.Fields, "status")
		outcome.StatusChanged = t.Status != outcome.PreviousStatus
	}
	if p.ResolutionDate.Set {
		t.ResolutionDate = p.ResolutionDate.Ptr()
		outcome.Fields = append(outcome.Fields, "resolutionDate")
	}
	if p.ExpectedResolutionDate.Set {
		t.ExpectedResolutionDate = p.ExpectedResolutionDate.Ptr()
		outcome.Fields = append(outcome.Fields, "expectedResolutionDate")
	}

	// lastUpdate never precedes creationDate, even for seeded tickets
	// created ahead of the clock.
	if now.Before(t.CreationDate) {
		now = t.CreationDate
	}
	t.LastUpdate = now

	if p.Status.HasValue() && p.Status.Value.IsTerminal() && !resolvedBefore && !p.ResolutionDate.Set {
		resolvedAt := now
		t.ResolutionDate = &resolvedAt
		outcome.AutoResolved = true
	}
	return outcome
}
