package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ErrTicketNotFound is returned when no ticket carries the requested id.
var ErrTicketNotFound = errors.New("ticket not found")

// Columns is the persisted column order shared by every backend and the CSV export.
var Columns = []string{
	"ticket_id",
	"timestamp",
	"user_query",
	"category",
	"urgency",
	"solution",
	"department",
	"status",
	"resolved_by",
	"confidence",
}

// TicketRepository encapsulates ticket persistence. Implementations assume a
// single writing process.
type TicketRepository interface {
	// Load returns every ticket in insertion order. A missing or unreadable
	// store yields an empty slice and no error.
	Load(ctx context.Context) ([]domain.Ticket, error)
	// GenerateID previews the id the next Save would assign.
	GenerateID(ctx context.Context) (string, error)
	// Save assigns id and timestamp, applies defaults and appends the ticket.
	Save(ctx context.Context, input domain.TicketInput) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateStatus sets the status; a non-empty department also reroutes the
	// ticket and marks it resolved by escalation.
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, department string) (*domain.Ticket, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// Option customizes a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FormatTicketID renders TKT-<YYYYMMDD>-<NNNN>.
func FormatTicketID(day time.Time, seq int) string {
	return fmt.Sprintf("TKT-%s-%04d", day.Format("20060102"), seq)
}

// nextTicketID derives the next id from the row count. The sequence is bumped
// past any id already present so a hand-edited store cannot yield duplicates.
func nextTicketID(day time.Time, rowCount int, exists func(string) bool) string {
	seq := rowCount + 1
	id := FormatTicketID(day, seq)
	for exists(id) {
		seq++
		id = FormatTicketID(day, seq)
	}
	return id
}

func idSet(tickets []domain.Ticket) func(string) bool {
	ids := make(map[string]struct{}, len(tickets))
	for _, t := range tickets {
		ids[t.ID] = struct{}{}
	}
	return func(id string) bool {
		_, ok := ids[id]
		return ok
	}
}

// applyStatusUpdate mutates a ticket the way UpdateStatus is defined.
func applyStatusUpdate(ticket *domain.Ticket, status domain.TicketStatus, department string) {
	ticket.Status = domain.NormalizeStatus(string(status))
	if dept := strings.TrimSpace(department); dept != "" {
		ticket.Department = dept
		ticket.ResolvedBy = domain.ResolvedByEscalated
	}
}

// parseTimestamp reads a persisted timestamp in the process's local zone. The
// layout has no offset, so a wall clock inside a DST fall-back hour maps to its
// first occurrence. Set APP_TIMEZONE=UTC to keep every instant unambiguous.
func parseTimestamp(raw string) (time.Time, error) {
	return time.ParseInLocation(domain.TimestampLayout, strings.TrimSpace(raw), time.Local)
}

// ticketSelectColumns lists the SQL columns in the order scanned by the SQL stores.
const ticketSelectColumns = `ticket_id, created_at, user_query, category, urgency, solution,
        department, status, resolved_by, confidence`

// statisticsFromAggregates turns SQL aggregate results into Statistics.
func statisticsFromAggregates(total, aiResolved, escalated int, avgConfidence float64) domain.Statistics {
	stats := domain.Statistics{TotalTickets: total, AIResolved: aiResolved, Escalated: escalated}
	if total == 0 {
		return stats
	}
	stats.ResolutionRate = float64(aiResolved) / float64(total) * 100
	stats.AvgConfidence = avgConfidence
	return stats
}

// dayPrefix matches every id generated on the given day.
func dayPrefix(day time.Time) string {
	return "TKT-" + day.Format("20060102") + "-%"
}
