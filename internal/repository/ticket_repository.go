package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// ErrNotFound is returned when no ticket has the requested id.
var ErrNotFound = errors.New("repository: ticket not found")

// TicketFilter captures collection query parameters. Nil fields do not filter.
type TicketFilter struct {
	Severity *domain.Severity
	Status   *domain.TicketStatus
	Limit    int
}

// MutateFunc edits a ticket inside a repository unit of work. Returning an
// error aborts the unit of work without persisting anything.
type MutateFunc func(ticket *domain.Ticket) error

// TicketRepository encapsulates ticket persistence. Implementations return
// copies; callers never hold references into store state.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// Modify loads the ticket, applies mutate and persists the result as one
	// serialized read-modify-write for that id.
	Modify(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

const defaultListLimit = 100

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository instantiates the pgx backed repository.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

const selectTicketColumns = `
        SELECT id, href, description, severity, priority, type, status, creation_date,
               expected_resolution_date, resolution_date, last_update, channel, external_id
        FROM trouble_tickets`

func (r *postgresTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO trouble_tickets (id, href, description, severity, priority, type, status, creation_date,
            expected_resolution_date, resolution_date, last_update, channel, external_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Href,
		ticket.Description,
		ticket.Severity,
		ticket.Priority,
		ticket.Type,
		ticket.Status,
		ticket.CreationDate,
		ticket.ExpectedResolutionDate,
		ticket.ResolutionDate,
		ticket.LastUpdate,
		ticket.Channel,
		ticket.ExternalID,
	)
	return err
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, selectTicketColumns+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *postgresTicketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		clauses = append(clauses, fmt.Sprintf("severity=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY seq ASC LIMIT %d`,
		selectTicketColumns, strings.Join(clauses, " AND "), effectiveLimit(filter.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// Modify locks the row with SELECT ... FOR UPDATE for the duration of one
// transaction. The deferred rollback releases the transaction on every path.
func (r *postgresTicketRepository) Modify(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ticket, err := scanTicket(tx.QueryRow(ctx, selectTicketColumns+` WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := mutate(ticket); err != nil {
		return nil, err
	}

	const query = `
        UPDATE trouble_tickets SET description=$1, severity=$2, priority=$3, status=$4,
            expected_resolution_date=$5, resolution_date=$6, last_update=$7
        WHERE id=$8`
	if _, err := tx.Exec(ctx, query,
		ticket.Description,
		ticket.Severity,
		ticket.Priority,
		ticket.Status,
		ticket.ExpectedResolutionDate,
		ticket.ResolutionDate,
		ticket.LastUpdate,
		ticket.ID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *postgresTicketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM trouble_tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresTicketRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Href,
		&ticket.Description,
		&ticket.Severity,
		&ticket.Priority,
		&ticket.Type,
		&ticket.Status,
		&ticket.CreationDate,
		&ticket.ExpectedResolutionDate,
		&ticket.ResolutionDate,
		&ticket.LastUpdate,
		&ticket.Channel,
		&ticket.ExternalID,
	); err != nil {
		return nil, err
	}
	normalizeTimes(&ticket)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// normalizeTimes converts every timestamp to UTC so that all backends render
// identical wire values.
func normalizeTimes(ticket *domain.Ticket) {
	ticket.CreationDate = ticket.CreationDate.UTC()
	ticket.LastUpdate = ticket.LastUpdate.UTC()
	if ticket.ExpectedResolutionDate != nil {
		v := ticket.ExpectedResolutionDate.UTC()
		ticket.ExpectedResolutionDate = &v
	}
	if ticket.ResolutionDate != nil {
		v := ticket.ResolutionDate.UTC()
		ticket.ResolutionDate = &v
	}
}
