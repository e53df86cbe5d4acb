package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// SQLiteConnPool hands out SQLite connections. Satisfied by
// persistence.SQLite and *sqlitex.Pool.
type SQLiteConnPool interface {
	Take(ctx context.Context) (*sqlite.Conn, error)
	Put(conn *sqlite.Conn)
}

// Timestamps are stored as RFC 3339 text in UTC.
const sqliteTimeLayout = time.RFC3339Nano

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trouble_tickets (
    id                       TEXT PRIMARY KEY,
    href                     TEXT NOT NULL,
    description              TEXT NOT NULL,
    severity                 TEXT NOT NULL,
    priority                 INTEGER NOT NULL,
    type                     TEXT NOT NULL,
    status                   TEXT NOT NULL,
    creation_date            TEXT NOT NULL,
    expected_resolution_date TEXT,
    resolution_date          TEXT,
    last_update              TEXT NOT NULL,
    channel                  TEXT,
    external_id              TEXT
);
CREATE INDEX IF NOT EXISTS idx_trouble_tickets_severity ON trouble_tickets (severity);
CREATE INDEX IF NOT EXISTS idx_trouble_tickets_status ON trouble_tickets (status);
`

const sqliteSelectColumns = "SELECT id, href, description, severity, priority, type, status, creation_date, " +
	"expected_resolution_date, resolution_date, last_update, channel, external_id FROM trouble_tickets"

type sqliteTicketRepository struct {
	pool SQLiteConnPool
}

// NewSQLiteTicketRepository creates the schema if needed and returns the
// repository. Writes run in IMMEDIATE transactions so SQLite serializes them.
func NewSQLiteTicketRepository(ctx context.Context, pool SQLiteConnPool) (TicketRepository, error) {
	conn, err := pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket store: take connection: %w", err)
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		return nil, fmt.Errorf("ticket store: create schema: %w", err)
	}
	return &sqliteTicketRepository{pool: pool}, nil
}

func (r *sqliteTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ticket store: create: %w", err)
	}
	defer r.pool.Put(conn)

	const query = "INSERT INTO trouble_tickets (id, href, description, severity, priority, type, status, " +
		"creation_date, expected_resolution_date, resolution_date, last_update, channel, external_id) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{
			ticket.ID,
			ticket.Href,
			ticket.Description,
			string(ticket.Severity),
			int64(ticket.Priority),
			string(ticket.Type),
			string(ticket.Status),
			formatSQLiteTime(ticket.CreationDate),
			nullableSQLiteTime(ticket.ExpectedResolutionDate),
			nullableSQLiteTime(ticket.ResolutionDate),
			formatSQLiteTime(ticket.LastUpdate),
			nullableSQLiteText(ticket.Channel),
			nullableSQLiteText(ticket.ExternalID),
		},
	})
}

func (r *sqliteTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket store: get: %w", err)
	}
	defer r.pool.Put(conn)
	return fetchSQLiteTicket(conn, id)
}

func (r *sqliteTicketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	defer r.pool.Put(conn)

	var conditions []string
	var args []any
	if filter.Severity != nil {
		conditions = append(conditions, "severity = ?")
		args = append(args, string(*filter.Severity))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := sqliteSelectColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY rowid ASC LIMIT ?"
	args = append(args, int64(effectiveLimit(filter.Limit)))

	tickets := []domain.Ticket{}
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			ticket, err := scanSQLiteTicket(stmt)
			if err != nil {
				return err
			}
			tickets = append(tickets, ticket)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	return tickets, nil
}

func (r *sqliteTicketRepository) Modify(ctx context.Context, id string, mutate MutateFunc) (result *domain.Ticket, err error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket store: modify: %w", err)
	}
	defer r.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("ticket store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	ticket, err := fetchSQLiteTicket(conn, id)
	if err != nil {
		return nil, err
	}
	if err = mutate(ticket); err != nil {
		return nil, err
	}

	const query = "UPDATE trouble_tickets SET description = ?, severity = ?, priority = ?, status = ?, " +
		"expected_resolution_date = ?, resolution_date = ?, last_update = ? WHERE id = ?"
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{
			ticket.Description,
			string(ticket.Severity),
			int64(ticket.Priority),
			string(ticket.Status),
			nullableSQLiteTime(ticket.ExpectedResolutionDate),
			nullableSQLiteTime(ticket.ResolutionDate),
			formatSQLiteTime(ticket.LastUpdate),
			ticket.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ticket store: update %s: %w", id, err)
	}
	return ticket, nil
}

func (r *sqliteTicketRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ticket store: delete: %w", err)
	}
	defer r.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM trouble_tickets WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("ticket store: delete %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteTicketRepository) Ping(ctx context.Context) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)
	return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
}

func fetchSQLiteTicket(conn *sqlite.Conn, id string) (*domain.Ticket, error) {
	var (
		ticket domain.Ticket
		found  bool
	)
	err := sqlitex.Execute(conn, sqliteSelectColumns+" WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			scanned, err := scanSQLiteTicket(stmt)
			if err != nil {
				return err
			}
			ticket = scanned
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ticket store: get %s: %w", id, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func scanSQLiteTicket(stmt *sqlite.Stmt) (domain.Ticket, error) {
	// Columns: id(0), href(1), description(2), severity(3), priority(4),
	// type(5), status(6), creation_date(7), expected_resolution_date(8),
	// resolution_date(9), last_update(10), channel(11), external_id(12)
	ticket := domain.Ticket{
		ID:          stmt.ColumnText(0),
		Href:        stmt.ColumnText(1),
		Description: stmt.ColumnText(2),
		Severity:    domain.Severity(stmt.ColumnText(3)),
		Priority:    stmt.ColumnInt(4),
		Type:        domain.TicketType(stmt.ColumnText(5)),
		Status:      domain.TicketStatus(stmt.ColumnText(6)),
	}

	var err error
	if ticket.CreationDate, err = parseSQLiteTime(stmt.ColumnText(7)); err != nil {
		return ticket, err
	}
	if ticket.ExpectedResolutionDate, err = parseNullableSQLiteTime(stmt, 8); err != nil {
		return ticket, err
	}
	if ticket.ResolutionDate, err = parseNullableSQLiteTime(stmt, 9); err != nil {
		return ticket, err
	}
	if ticket.LastUpdate, err = parseSQLiteTime(stmt.ColumnText(10)); err != nil {
		return ticket, err
	}
	if !stmt.ColumnIsNull(11) {
		channel := stmt.ColumnText(11)
		ticket.Channel = &channel
	}
	if !stmt.ColumnIsNull(12) {
		externalID := stmt.ColumnText(12)
		ticket.ExternalID = &externalID
	}
	return ticket, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableSQLiteTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatSQLiteTime(*t)
}

func nullableSQLiteText(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("ticket store: parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

func parseNullableSQLiteTime(stmt *sqlite.Stmt, column int) (*time.Time, error) {
	if stmt.ColumnIsNull(column) {
		return nil, nil
	}
	t, err := parseSQLiteTime(stmt.ColumnText(column))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
