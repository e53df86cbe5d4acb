package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/pkg/util/errorutil"
)

func seedFixtures() []TicketSeedInput {
	resolvedAt := t0.Add(-time.Hour)
	return []TicketSeedInput{
		{
			Description:  "Internet connection intermittent",
			Severity:     domain.SeverityMajor,
			Priority:     2,
			Type:         domain.TicketTypeTrouble,
			Status:       domain.TicketStatusInProgress,
			Channel:      ptr("phone"),
			CreationDate: t0.Add(-4 * time.Hour),
		},
		{
			Description:    "Invoice shows wrong amount",
			Severity:       domain.SeverityMinor,
			Priority:       4,
			Type:           domain.TicketTypeComplaint,
			Status:         domain.TicketStatusResolved,
			CreationDate:   t0.Add(-48 * time.Hour),
			ResolutionDate: &resolvedAt,
		},
	}
}

func TestSeedInsertsIntoEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.Seed(ctx, seedFixtures())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if result.Skipped || result.Inserted != 2 {
		t.Fatalf("result = %+v, want 2 inserted", result)
	}

	list, err := env.svc.ListTickets(ctx, TicketListFilter{})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("listed %d tickets, want 2", len(list))
	}
	first := list[0]
	if first.Status != domain.TicketStatusInProgress || first.Href != domain.TicketHref(first.ID) {
		t.Errorf("first seeded ticket = %+v", first)
	}
	if !first.LastUpdate.Equal(first.CreationDate) {
		t.Errorf("LastUpdate = %v, want CreationDate %v", first.LastUpdate, first.CreationDate)
	}
	if list[1].ResolutionDate == nil || !list[1].ResolutionDate.Equal(t0.Add(-time.Hour)) {
		t.Errorf("ResolutionDate = %v, want %v", list[1].ResolutionDate, t0.Add(-time.Hour))
	}
}

func TestSeedSkipsNonEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, TicketCreateInput{Description: "existing"})

	result, err := env.svc.Seed(ctx, seedFixtures())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !result.Skipped || result.Inserted != 0 {
		t.Errorf("result = %+v, want skipped", result)
	}
	list, _ := env.svc.ListTickets(ctx, TicketListFilter{})
	if len(list) != 1 {
		t.Errorf("listed %d tickets, want 1", len(list))
	}
}

func TestSeedRejectsInvalidFixtureBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fixtures := seedFixtures()
	fixtures[1].Status = domain.TicketStatus("archived")

	if _, err := env.svc.Seed(ctx, fixtures); !errorutil.IsValidation(err) {
		t.Fatalf("Seed error = %v, want validation error", err)
	}
	list, _ := env.svc.ListTickets(ctx, TicketListFilter{})
	if len(list) != 0 {
		t.Errorf("partial seed written: %d tickets", len(list))
	}
}
