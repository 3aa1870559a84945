package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SQLiteTicketRepository stores tickets in an embedded SQLite database.
type SQLiteTicketRepository struct {
	db     *sql.DB
	logger *zap.Logger
	opts   options
}

// NewSQLiteTicketRepository wraps a database opened with persistence.OpenSQLite.
func NewSQLiteTicketRepository(db *sql.DB, logger *zap.Logger, opts ...Option) *SQLiteTicketRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteTicketRepository{db: db, logger: logger, opts: applyOptions(opts)}
}

type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteTicketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+ticketSelectColumns+" FROM tickets ORDER BY seq")
	if err != nil {
		r.logger.Warn("ticket store unreadable; treating as empty", zap.Error(err))
		return []domain.Ticket{}, nil
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanSQLiteTicket(rows)
		if err != nil {
			r.logger.Warn("ticket store unreadable; treating as empty", zap.Error(err))
			return []domain.Ticket{}, nil
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		r.logger.Warn("ticket store unreadable; treating as empty", zap.Error(err))
		return []domain.Ticket{}, nil
	}
	return tickets, nil
}

func (r *SQLiteTicketRepository) GenerateID(ctx context.Context) (string, error) {
	return r.nextID(ctx, r.db)
}

func (r *SQLiteTicketRepository) nextID(ctx context.Context, q sqlQueryer) (string, error) {
	now := r.opts.now()

	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&count); err != nil {
		return "", fmt.Errorf("failed to count tickets: %w", err)
	}

	rows, err := q.QueryContext(ctx, "SELECT ticket_id FROM tickets WHERE ticket_id LIKE ?", dayPrefix(now))
	if err != nil {
		return "", fmt.Errorf("failed to list ticket ids: %w", err)
	}
	defer rows.Close()

	ids := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan ticket id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to list ticket ids: %w", err)
	}

	return nextTicketID(now, count, func(id string) bool {
		_, ok := ids[id]
		return ok
	}), nil
}

func (r *SQLiteTicketRepository) Save(ctx context.Context, input domain.TicketInput) (*domain.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id, err := r.nextID(ctx, tx)
	if err != nil {
		return nil, err
	}
	ticket := domain.NewTicket(id, r.opts.now(), input)

	_, err = tx.ExecContext(ctx, `
        INSERT INTO tickets (ticket_id, created_at, user_query, category, urgency, solution,
            department, status, resolved_by, confidence)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID,
		ticket.FormattedTimestamp(),
		ticket.UserQuery,
		string(ticket.Category),
		string(ticket.Urgency),
		ticket.Solution,
		ticket.Department,
		string(ticket.Status),
		string(ticket.ResolvedBy),
		ticket.Confidence,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket: %w", err)
	}
	return &ticket, nil
}

func (r *SQLiteTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+ticketSelectColumns+" FROM tickets WHERE ticket_id = ? ORDER BY seq LIMIT 1", id)
	ticket, err := scanSQLiteTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *SQLiteTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, department string) (*domain.Ticket, error) {
	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStatusUpdate(ticket, status, department)

	res, err := r.db.ExecContext(ctx,
		"UPDATE tickets SET status = ?, department = ?, resolved_by = ? WHERE ticket_id = ?",
		string(ticket.Status), ticket.Department, string(ticket.ResolvedBy), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (r *SQLiteTicketRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	var (
		total, ai, escalated int
		avg                  float64
	)
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM(CASE WHEN resolved_by = 'AI' THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN resolved_by = 'Escalated' THEN 1 ELSE 0 END), 0),
               COALESCE(AVG(confidence), 0)
        FROM tickets`).Scan(&total, &ai, &escalated, &avg)
	if err != nil {
		r.logger.Warn("ticket statistics unavailable; reporting empty store", zap.Error(err))
		return domain.Statistics{}, nil
	}
	return statisticsFromAggregates(total, ai, escalated, avg), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTicket(row rowScanner) (domain.Ticket, error) {
	var (
		ticket    domain.Ticket
		createdAt string
	)
	var category, urgency, status, resolvedBy string
	if err := row.Scan(
		&ticket.ID,
		&createdAt,
		&ticket.UserQuery,
		&category,
		&urgency,
		&ticket.Solution,
		&ticket.Department,
		&status,
		&resolvedBy,
		&ticket.Confidence,
	); err != nil {
		return domain.Ticket{}, err
	}
	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("timestamp %q: %w", createdAt, err)
	}
	ticket.Timestamp = ts
	ticket.Category = domain.Category(category)
	ticket.Urgency = domain.Urgency(urgency)
	ticket.Status = domain.TicketStatus(status)
	ticket.ResolvedBy = domain.ResolvedBy(resolvedBy)
	return ticket, nil
}
