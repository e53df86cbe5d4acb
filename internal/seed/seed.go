// Package seed loads demo ticket fixtures from YAML.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/service"
)

// DefaultCreatedAgo is how long before seeding a fixture is created when it
// does not say otherwise.
const DefaultCreatedAgo = 4 * time.Hour

//go:embed fixtures/seed_tickets.yaml
var defaultFixtures []byte

// Fixture is one ticket as written in a fixture file. Dates are offsets from
// the seeding time.
type Fixture struct {
	Description          string         `yaml:"description"`
	Severity             string         `yaml:"severity"`
	Priority             int            `yaml:"priority"`
	Type                 string         `yaml:"type"`
	Status               string         `yaml:"status"`
	Channel              *string        `yaml:"channel"`
	ExternalID           *string        `yaml:"externalId"`
	ExpectedResolutionIn *time.Duration `yaml:"expectedResolutionIn"`
	ResolvedAgo          *time.Duration `yaml:"resolvedAgo"`
	CreatedAgo           *time.Duration `yaml:"createdAgo"`
}

type fixtureFile struct {
	Tickets []Fixture `yaml:"tickets"`
}

// Default returns the embedded demo fixtures.
func Default() ([]Fixture, error) {
	return Load(bytes.NewReader(defaultFixtures))
}

// LoadFile reads fixtures from path.
func LoadFile(path string) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a fixture document. Unknown keys are rejected.
func Load(r io.Reader) ([]Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file fixtureFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed: empty fixture document")
		}
		return nil, fmt.Errorf("seed: decode fixtures: %w", err)
	}
	return file.Tickets, nil
}

// Resolve turns fixtures into seed inputs relative to now, filling the
// creation defaults for omitted fields.
func Resolve(fixtures []Fixture, now time.Time) []service.TicketSeedInput {
	inputs := make([]service.TicketSeedInput, 0, len(fixtures))
	for _, f := range fixtures {
		input := service.TicketSeedInput{
			Description: f.Description,
			Severity:    domain.Severity(f.Severity),
			Priority:    f.Priority,
			Type:        domain.TicketType(f.Type),
			Status:      domain.TicketStatus(f.Status),
			Channel:     f.Channel,
			ExternalID:  f.ExternalID,
		}
		if input.Severity == "" {
			input.Severity = domain.DefaultSeverity
		}
		if input.Priority == 0 {
			input.Priority = domain.DefaultPriority
		}
		if input.Type == "" {
			input.Type = domain.DefaultType
		}
		if input.Status == "" {
			input.Status = domain.TicketStatusAcknowledged
		}

		createdAgo := DefaultCreatedAgo
		if f.CreatedAgo != nil {
			createdAgo = *f.CreatedAgo
		}
		input.CreationDate = now.Add(-createdAgo)
		if f.ExpectedResolutionIn != nil {
			t := now.Add(*f.ExpectedResolutionIn)
			input.ExpectedResolutionDate = &t
		}
		if f.ResolvedAgo != nil {
			t := now.Add(-*f.ResolvedAgo)
			input.ResolutionDate = &t
		}
		inputs = append(inputs, input)
	}
	return inputs
}
