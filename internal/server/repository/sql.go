package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/server/models"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// driverName maps a dialect to its registered database/sql driver.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectMySQL:
		return "mysql", nil
	case DialectPostgres:
		return "pgx", nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", d)
}

// timeLayout is fixed width so that stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const createTicketsTable = `CREATE TABLE IF NOT EXISTS tickets (
	id                  VARCHAR(36) PRIMARY KEY,
	ticket_number       VARCHAR(16) NOT NULL,
	subject             TEXT NOT NULL,
	description         TEXT NOT NULL,
	status              VARCHAR(16) NOT NULL,
	priority            VARCHAR(16) NOT NULL,
	source              VARCHAR(16) NOT NULL,
	language            VARCHAR(8) NOT NULL,
	customer_name       TEXT NOT NULL,
	customer_phone      VARCHAR(32) NOT NULL,
	customer_email      TEXT NOT NULL,
	conversation        TEXT NOT NULL,
	receipt_url         TEXT NOT NULL,
	receipt_filename    TEXT NOT NULL,
	receipt_uploaded_at VARCHAR(40) NOT NULL,
	assigned_to         TEXT NOT NULL,
	created_at          VARCHAR(40) NOT NULL,
	updated_at          VARCHAR(40) NOT NULL,
	resolved_at         VARCHAR(40) NOT NULL
)`

const ticketColumns = `id, ticket_number, subject, description, status, priority, source, language,
	customer_name, customer_phone, customer_email, conversation, receipt_url, receipt_filename,
	receipt_uploaded_at, assigned_to, created_at, updated_at, resolved_at`

// SQLStore keeps tickets in a relational database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore opens the database described by dialect and dsn and creates the
// tickets table if it does not exist.
// Returns an error if the driver is unknown or the database is unreachable.
func NewSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err = s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logrus.Infof("SQL ticket store opened with %s driver", driver)
	return s, nil
}

// Migrate creates the tickets table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTicketsTable); err != nil {
		return fmt.Errorf("create tickets table: %w", err)
	}
	return nil
}

// Close closes the underlying database pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create inserts ticket.
func (s *SQLStore) Create(ctx context.Context, ticket *models.Ticket) error {
	args, err := ticketArgs(ticket)
	if err != nil {
		return err
	}
	query := s.rebind(`INSERT INTO tickets (` + ticketColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ticket %s: %w", ticket.ID, err)
	}
	return nil
}

// Get returns the ticket with id or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`), id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	return t, nil
}

// List returns the filtered page of tickets, newest first, and the total number of matches.
func (s *SQLStore) List(ctx context.Context, filter models.TicketFilter) ([]*models.Ticket, int, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Language != "" {
		where += " AND language = ?"
		args = append(args, filter.Language)
	}
	if filter.Source != "" {
		where += " AND source = ?"
		args = append(args, string(filter.Source))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM tickets`+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*models.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, total, nil
}

// Update overwrites every column of the ticket with the same id.
// Returns ErrNotFound if there is none.
func (s *SQLStore) Update(ctx context.Context, ticket *models.Ticket) error {
	args, err := ticketArgs(ticket)
	if err != nil {
		return err
	}
	query := s.rebind(`UPDATE tickets SET ticket_number = ?, subject = ?, description = ?, status = ?,
		priority = ?, source = ?, language = ?, customer_name = ?, customer_phone = ?, customer_email = ?,
		conversation = ?, receipt_url = ?, receipt_filename = ?, receipt_uploaded_at = ?, assigned_to = ?,
		created_at = ?, updated_at = ?, resolved_at = ? WHERE id = ?`)
	// The id moves from the first to the last argument.
	args = append(args[1:], args[0])

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", ticket.ID, err)
	}
	return s.checkAffected(ctx, res, ticket.ID)
}

// Delete removes the ticket with id.
// Returns ErrNotFound if there is none.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tickets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete ticket %s: %w", id, err)
	}
	return s.checkAffected(ctx, res, id)
}

// checkAffected maps a zero row count to ErrNotFound. MySQL reports zero for
// updates that change nothing, so the row is looked up before giving up.
func (s *SQLStore) checkAffected(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM tickets WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ticketArgs(t *models.Ticket) ([]any, error) {
	conversation := t.Conversation
	if conversation == nil {
		conversation = []models.Message{}
	}
	conv, err := json.Marshal(conversation)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return []any{
		t.ID, t.TicketNumber, t.Subject, t.Description, string(t.Status), string(t.Priority),
		string(t.Source), t.Language, t.CustomerName, t.CustomerPhone, t.CustomerEmail, string(conv),
		t.ReceiptURL, t.ReceiptFilename, formatOptionalTime(t.ReceiptUploadedAt), t.AssignedTo,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), formatOptionalTime(t.ResolvedAt),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*models.Ticket, error) {
	var (
		t                              models.Ticket
		status, priority, source, conv string
		uploadedAt, resolvedAt         string
		createdAt, updatedAt           string
	)
	err := row.Scan(
		&t.ID, &t.TicketNumber, &t.Subject, &t.Description, &status, &priority, &source, &t.Language,
		&t.CustomerName, &t.CustomerPhone, &t.CustomerEmail, &conv, &t.ReceiptURL, &t.ReceiptFilename,
		&uploadedAt, &t.AssignedTo, &createdAt, &updatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = models.TicketStatus(status)
	t.Priority = models.TicketPriority(priority)
	t.Source = models.TicketSource(source)

	if err = json.Unmarshal([]byte(conv), &t.Conversation); err != nil {
		return nil, fmt.Errorf("unmarshal conversation of %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at of %s: %w", t.ID, err)
	}
	if t.ReceiptUploadedAt, err = parseOptionalTime(uploadedAt); err != nil {
		return nil, fmt.Errorf("parse receipt_uploaded_at of %s: %w", t.ID, err)
	}
	if t.ResolvedAt, err = parseOptionalTime(resolvedAt); err != nil {
		return nil, fmt.Errorf("parse resolved_at of %s: %w", t.ID, err)
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
