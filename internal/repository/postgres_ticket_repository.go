package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type postgresTicketRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	opts   options
}

// NewPostgresTicketRepository instantiates the postgres-backed store. The
// tickets table comes from the migrations directory.
func NewPostgresTicketRepository(pool *pgxpool.Pool, logger *zap.Logger, opts ...Option) TicketRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresTicketRepository{pool: pool, logger: logger, opts: applyOptions(opts)}
}

type pgQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresTicketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+ticketSelectColumns+" FROM tickets ORDER BY seq")
	if err != nil {
		r.logger.Warn("ticket store unreadable; treating as empty", zap.Error(err))
		return []domain.Ticket{}, nil
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanPostgresTicket(rows)
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

func (r *postgresTicketRepository) GenerateID(ctx context.Context) (string, error) {
	return r.nextID(ctx, r.pool)
}

func (r *postgresTicketRepository) nextID(ctx context.Context, q pgQueryer) (string, error) {
	now := r.opts.now()

	var count int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM tickets").Scan(&count); err != nil {
		return "", fmt.Errorf("count tickets: %w", err)
	}

	rows, err := q.Query(ctx, "SELECT ticket_id FROM tickets WHERE ticket_id LIKE $1", dayPrefix(now))
	if err != nil {
		return "", fmt.Errorf("list ticket ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", fmt.Errorf("list ticket ids: %w", err)
	}
	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}

	return nextTicketID(now, count, func(id string) bool {
		_, ok := existing[id]
		return ok
	}), nil
}

func (r *postgresTicketRepository) Save(ctx context.Context, input domain.TicketInput) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Blocks concurrent writers between counting rows and inserting.
	if _, err := tx.Exec(ctx, "LOCK TABLE tickets IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return nil, fmt.Errorf("lock tickets: %w", err)
	}

	id, err := r.nextID(ctx, tx)
	if err != nil {
		return nil, err
	}
	ticket := domain.NewTicket(id, r.opts.now(), input)

	const query = `
        INSERT INTO tickets (ticket_id, created_at, user_query, category, urgency, solution,
            department, status, resolved_by, confidence)
        VALUES ($1, $2::timestamp, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, query,
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
	); err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ticket: %w", err)
	}
	return &ticket, nil
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = "SELECT " + ticketSelectColumns + " FROM tickets WHERE ticket_id=$1 ORDER BY seq LIMIT 1"
	ticket, err := scanPostgresTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *postgresTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, department string) (*domain.Ticket, error) {
	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStatusUpdate(ticket, status, department)

	const query = `UPDATE tickets SET status=$1, department=$2, resolved_by=$3 WHERE ticket_id=$4`
	cmd, err := r.pool.Exec(ctx, query, string(ticket.Status), ticket.Department, string(ticket.ResolvedBy), id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (r *postgresTicketRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE resolved_by = 'AI'),
               COUNT(*) FILTER (WHERE resolved_by = 'Escalated'),
               COALESCE(AVG(confidence), 0)
        FROM tickets`
	var (
		total, ai, escalated int64
		avg                  float64
	)
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &ai, &escalated, &avg); err != nil {
		r.logger.Warn("ticket statistics unavailable; reporting empty store", zap.Error(err))
		return domain.Statistics{}, nil
	}
	return statisticsFromAggregates(int(total), int(ai), int(escalated), avg), nil
}

func scanPostgresTicket(row pgx.Row) (domain.Ticket, error) {
	var (
		ticket    domain.Ticket
		createdAt time.Time
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
	// TIMESTAMP columns carry no zone; the stored wall clock is server-local.
	ticket.Timestamp = time.Date(createdAt.Year(), createdAt.Month(), createdAt.Day(),
		createdAt.Hour(), createdAt.Minute(), createdAt.Second(), 0, time.Local)
	ticket.Category = domain.Category(category)
	ticket.Urgency = domain.Urgency(urgency)
	ticket.Status = domain.TicketStatus(status)
	ticket.ResolvedBy = domain.ResolvedBy(resolvedBy)
	return ticket, nil
}
