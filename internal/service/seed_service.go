package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/repository"
	"github.com/spec-kit/trouble-ticket/internal/validation"
	"github.com/spec-kit/trouble-ticket/pkg/util/errorutil"
)

// TicketSeedInput is a fully resolved fixture ticket. Unlike created tickets,
// seeded ones may start in any status and carry their own dates.
type TicketSeedInput struct {
	Description            string              `validate:"notblank"`
	Severity               domain.Severity     `validate:"ticket_severity"`
	Priority               int                 `validate:"min=1,max=5"`
	Type                   domain.TicketType   `validate:"ticket_type"`
	Status                 domain.TicketStatus `validate:"ticket_status"`
	Channel                *string
	ExternalID             *string
	CreationDate           time.Time `validate:"required"`
	ExpectedResolutionDate *time.Time
	ResolutionDate         *time.Time
}

// SeedResult reports what Seed did.
type SeedResult struct {
	Inserted int
	Skipped  bool
}

// Seed inserts the fixtures only when the store holds no tickets. Every
// fixture is validated before anything is written.
func (s *TicketService) Seed(ctx context.Context, inputs []TicketSeedInput) (SeedResult, error) {
	for i, input := range inputs {
		if fields := validation.Struct(input); len(fields) > 0 {
			return SeedResult{}, errorutil.NewValidationError(
				fmt.Sprintf("invalid seed ticket #%d", i+1),
				map[string]any{"fields": fields},
			)
		}
	}

	existing, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{Limit: 1})
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: check store: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("store already contains tickets, skipping seed")
		return SeedResult{Skipped: true}, nil
	}

	var result SeedResult
	for _, input := range inputs {
		id := s.newID()
		created := input.CreationDate.UTC()
		ticket := &domain.Ticket{
			ID:                     id,
			Href:                   domain.TicketHref(id),
			Description:            input.Description,
			Severity:               input.Severity,
			Priority:               input.Priority,
			Type:                   input.Type,
			Status:                 input.Status,
			CreationDate:           created,
			ExpectedResolutionDate: utcPtr(input.ExpectedResolutionDate),
			ResolutionDate:         utcPtr(input.ResolutionDate),
			LastUpdate:             created,
			Channel:                input.Channel,
			ExternalID:             input.ExternalID,
		}
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return result, fmt.Errorf("seed: insert %q: %w", input.Description, err)
		}
		result.Inserted++
	}
	s.logger.Info("seeded tickets", zap.Int("count", result.Inserted))
	return result, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
