package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CSVTicketRepository keeps tickets in a single CSV file that is rewritten on
// every mutation.
type CSVTicketRepository struct {
	path   string
	logger *zap.Logger
	opts   options

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewCSVTicketRepository creates the backing file (header only) when absent.
func NewCSVTicketRepository(path string, logger *zap.Logger, opts ...Option) (*CSVTicketRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &CSVTicketRepository{path: path, logger: logger, opts: applyOptions(opts)}
	if err := r.ensureFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the backing file location.
func (r *CSVTicketRepository) Path() string {
	return r.path
}

func (r *CSVTicketRepository) ensureFile() error {
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", r.path, err)
	}
	return r.writeAll(nil)
}

func (r *CSVTicketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tickets, err := r.readAll()
	if err != nil {
		r.logger.Warn("ticket store unreadable; treating as empty", zap.String("path", r.path), zap.Error(err))
		return []domain.Ticket{}, nil
	}
	return tickets, nil
}

func (r *CSVTicketRepository) GenerateID(ctx context.Context) (string, error) {
	tickets, err := r.Load(ctx)
	if err != nil {
		return "", err
	}
	return nextTicketID(r.opts.now(), len(tickets), idSet(tickets)), nil
}

func (r *CSVTicketRepository) Save(ctx context.Context, input domain.TicketInput) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// A corrupt file is not clobbered: the write is refused instead.
	tickets, err := r.readAll()
	if err != nil {
		return nil, fmt.Errorf("read tickets before save: %w", err)
	}
	now := r.opts.now()
	ticket := domain.NewTicket(nextTicketID(now, len(tickets), idSet(tickets)), now, input)
	tickets = append(tickets, ticket)
	if err := r.writeAll(tickets); err != nil {
		return nil, fmt.Errorf("persist tickets: %w", err)
	}
	return &ticket, nil
}

func (r *CSVTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, ErrTicketNotFound
}

func (r *CSVTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, department string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tickets, err := r.readAll()
	if err != nil {
		return nil, fmt.Errorf("read tickets before update: %w", err)
	}
	idx := -1
	for i := range tickets {
		if tickets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrTicketNotFound
	}
	applyStatusUpdate(&tickets[idx], status, department)
	if err := r.writeAll(tickets); err != nil {
		return nil, fmt.Errorf("persist tickets: %w", err)
	}
	updated := tickets[idx]
	return &updated, nil
}

func (r *CSVTicketRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	tickets, err := r.Load(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	return analytics.ComputeStatistics(tickets), nil
}

func (r *CSVTicketRepository) readAll() ([]domain.Ticket, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Ticket{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

// writeAll replaces the file atomically via a temp file in the same directory.
func (r *CSVTicketRepository) writeAll(tickets []domain.Ticket) error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".tickets-*.csv")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := EncodeCSV(tmp, tickets); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, r.path)
}

// EncodeCSV writes the header and one row per ticket.
func EncodeCSV(w io.Writer, tickets []domain.Ticket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, t := range tickets {
		if err := cw.Write(ticketRecord(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV parses a ticket table. Columns are located by header name so
// reordered files load; absent columns read as empty.
func DecodeCSV(rd io.Reader) ([]domain.Ticket, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.Ticket{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := index["ticket_id"]; !ok {
		return nil, errors.New("missing ticket_id column")
	}

	tickets := []domain.Ticket{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(tickets)+1, err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		ticket, err := ticketFromFields(field)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(tickets)+1, err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func ticketRecord(t domain.Ticket) []string {
	timestamp := ""
	if !t.Timestamp.IsZero() {
		timestamp = t.FormattedTimestamp()
	}
	return []string{
		t.ID,
		timestamp,
		t.UserQuery,
		string(t.Category),
		string(t.Urgency),
		t.Solution,
		t.Department,
		string(t.Status),
		string(t.ResolvedBy),
		strconv.FormatFloat(t.Confidence, 'f', -1, 64),
	}
}

func ticketFromFields(field func(string) string) (domain.Ticket, error) {
	ticket := domain.Ticket{
		ID:         field("ticket_id"),
		UserQuery:  field("user_query"),
		Category:   domain.Category(field("category")),
		Urgency:    domain.Urgency(field("urgency")),
		Solution:   field("solution"),
		Department: field("department"),
		Status:     domain.TicketStatus(field("status")),
		ResolvedBy: domain.ResolvedBy(field("resolved_by")),
	}
	if raw := field("timestamp"); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("timestamp %q: %w", raw, err)
		}
		ticket.Timestamp = ts
	}
	if raw := strings.TrimSpace(field("confidence")); raw != "" {
		confidence, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("confidence %q: %w", raw, err)
		}
		ticket.Confidence = confidence
	}
	return ticket, nil
}
