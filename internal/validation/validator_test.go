package validation

import (
	"strings"
	"testing"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

type sample struct {
	Description string           `validate:"notblank"`
	Severity    *domain.Severity `validate:"omitempty,ticket_severity"`
	Priority    *int             `validate:"omitempty,min=1,max=5"`
}

func TestStructAcceptsValidInput(t *testing.T) {
	severity := domain.SeverityMajor
	priority := 1
	if msgs := Struct(sample{Description: "x", Severity: &severity, Priority: &priority}); msgs != nil {
		t.Fatalf("Struct = %v, want nil", msgs)
	}
}

func TestStructReportsEachField(t *testing.T) {
	severity := domain.Severity("blocker")
	priority := 0
	msgs := Struct(sample{Description: "   ", Severity: &severity, Priority: &priority})

	if got := msgs["description"]; got != "description is required" {
		t.Errorf("description message = %q", got)
	}
	if got := msgs["severity"]; !strings.Contains(got, "critical, major, minor") {
		t.Errorf("severity message = %q, want the accepted values listed", got)
	}
	if got := msgs["priority"]; got != "priority must be greater than or equal to 1" {
		t.Errorf("priority message = %q", got)
	}
}

func TestVarUsesGivenFieldName(t *testing.T) {
	if got := Var("status", "reopened", TagStatus); !strings.HasPrefix(got, "status must be one of") {
		t.Errorf("Var = %q", got)
	}
	if got := Var("status", string(domain.TicketStatusInProgress), TagStatus); got != "" {
		t.Errorf("Var on a valid status = %q, want empty", got)
	}
	if got := Var("priority", 6, "min=1,max=5"); got != "priority must be less than or equal to 5" {
		t.Errorf("Var = %q", got)
	}
}
