package domain

import (
	"encoding/json"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestTicket() Ticket {
	return Ticket{
		ID:           "t-1",
		Href:         TicketHref("t-1"),
		Description:  "A",
		Severity:     SeverityMinor,
		Priority:     2,
		Type:         TicketTypeTrouble,
		Status:       TicketStatusInProgress,
		CreationDate: baseTime,
		LastUpdate:   baseTime,
	}
}

func TestOptionalUnmarshalDistinguishesAbsentNullAndValue(t *testing.T) {
	var patch struct {
		Description Optional[string]    `json:"description"`
		Priority    Optional[int]       `json:"priority"`
		Resolution  Optional[time.Time] `json:"resolutionDate"`
	}
	if err := json.Unmarshal([]byte(`{"priority":5,"resolutionDate":null}`), &patch); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if patch.Description.Set {
		t.Errorf("description Set = true, want false for a missing key")
	}
	if !patch.Priority.HasValue() || patch.Priority.Value != 5 {
		t.Errorf("priority = %+v, want value 5", patch.Priority)
	}
	if !patch.Resolution.Set || !patch.Resolution.Null {
		t.Errorf("resolutionDate = %+v, want explicit null", patch.Resolution)
	}
	if patch.Resolution.Ptr() != nil {
		t.Errorf("Ptr() of null slot = %v, want nil", patch.Resolution.Ptr())
	}
}

func TestOptionalUnmarshalRejectsWrongType(t *testing.T) {
	var slot Optional[int]
	if err := json.Unmarshal([]byte(`"five"`), &slot); err == nil {
		t.Fatal("expected an error decoding a string into Optional[int]")
	}
}

func TestApplyPatchLeavesUnsetFieldsUntouched(t *testing.T) {
	ticket := newTestTicket()
	now := baseTime.Add(time.Hour)

	outcome := ticket.ApplyPatch(TicketPatch{Priority: Some(5)}, now)

	if ticket.Priority != 5 {
		t.Errorf("Priority = %d, want 5", ticket.Priority)
	}
	if ticket.Description != "A" {
		t.Errorf("Description = %q, want %q", ticket.Description, "A")
	}
	if ticket.Status != TicketStatusInProgress {
		t.Errorf("Status = %q, want %q", ticket.Status, TicketStatusInProgress)
	}
	if !ticket.LastUpdate.Equal(now) {
		t.Errorf("LastUpdate = %v, want %v", ticket.LastUpdate, now)
	}
	if len(outcome.Fields) != 1 || outcome.Fields[0] != "priority" {
		t.Errorf("Fields = %v, want [priority]", outcome.Fields)
	}
}

func TestApplyPatchAutoResolvesOnFirstTerminalEntry(t *testing.T) {
	ticket := newTestTicket()
	resolvedAt := baseTime.Add(time.Hour)

	outcome := ticket.ApplyPatch(TicketPatch{Status: Some(TicketStatusResolved)}, resolvedAt)
	if !outcome.AutoResolved || !outcome.StatusChanged {
		t.Fatalf("outcome = %+v, want auto-resolved status change", outcome)
	}
	if ticket.ResolutionDate == nil || !ticket.ResolutionDate.Equal(resolvedAt) {
		t.Fatalf("ResolutionDate = %v, want %v", ticket.ResolutionDate, resolvedAt)
	}

	closedAt := resolvedAt.Add(time.Hour)
	outcome = ticket.ApplyPatch(TicketPatch{Status: Some(TicketStatusClosed)}, closedAt)
	if outcome.AutoResolved {
		t.Errorf("second terminal transition reassigned the resolution date")
	}
	if !ticket.ResolutionDate.Equal(resolvedAt) {
		t.Errorf("ResolutionDate = %v, want first value %v", ticket.ResolutionDate, resolvedAt)
	}
	if !ticket.LastUpdate.Equal(closedAt) {
		t.Errorf("LastUpdate = %v, want %v", ticket.LastUpdate, closedAt)
	}
}

func TestApplyPatchExplicitResolutionDateWins(t *testing.T) {
	tests := []struct {
		name  string
		slot  Optional[time.Time]
		check func(t *testing.T, got *time.Time)
	}{
		{
			name: "explicit value",
			slot: Some(baseTime.Add(-48 * time.Hour)),
			check: func(t *testing.T, got *time.Time) {
				want := baseTime.Add(-48 * time.Hour)
				if got == nil || !got.Equal(want) {
					t.Errorf("ResolutionDate = %v, want %v", got, want)
				}
			},
		},
		{
			name: "explicit null",
			slot: Null[time.Time](),
			check: func(t *testing.T, got *time.Time) {
				if got != nil {
					t.Errorf("ResolutionDate = %v, want nil", got)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := newTestTicket()
			outcome := ticket.ApplyPatch(TicketPatch{
				Status:         Some(TicketStatusClosed),
				ResolutionDate: tt.slot,
			}, baseTime.Add(time.Hour))
			if outcome.AutoResolved {
				t.Errorf("AutoResolved = true, want false when the patch carries resolutionDate")
			}
			tt.check(t, ticket.ResolutionDate)
		})
	}
}

func TestApplyPatchNonTerminalStatusHasNoSideEffect(t *testing.T) {
	ticket := newTestTicket()
	ticket.ApplyPatch(TicketPatch{Status: Some(TicketStatusPending)}, baseTime.Add(time.Minute))
	if ticket.ResolutionDate != nil {
		t.Errorf("ResolutionDate = %v, want nil", ticket.ResolutionDate)
	}
}

func TestApplyPatchClampsLastUpdateToCreationDate(t *testing.T) {
	ticket := newTestTicket()
	ticket.ApplyPatch(TicketPatch{}, baseTime.Add(-time.Hour))
	if !ticket.LastUpdate.Equal(ticket.CreationDate) {
		t.Errorf("LastUpdate = %v, want creation date %v", ticket.LastUpdate, ticket.CreationDate)
	}
}

func TestCloneDoesNotSharePointers(t *testing.T) {
	channel := "email"
	expected := baseTime.Add(24 * time.Hour)
	ticket := newTestTicket()
	ticket.Channel = &channel
	ticket.ExpectedResolutionDate = &expected

	clone := ticket.Clone()
	*clone.Channel = "phone"
	*clone.ExpectedResolutionDate = baseTime

	if *ticket.Channel != "email" {
		t.Errorf("original Channel = %q, want %q", *ticket.Channel, "email")
	}
	if !ticket.ExpectedResolutionDate.Equal(expected) {
		t.Errorf("original ExpectedResolutionDate changed to %v", ticket.ExpectedResolutionDate)
	}
}

func TestTicketHrefEncodesID(t *testing.T) {
	if got, want := TicketHref("abc"), "/tmf-api/troubleTicket/v5/troubleTicket/abc"; got != want {
		t.Errorf("TicketHref = %q, want %q", got, want)
	}
}
