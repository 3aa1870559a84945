package analytics

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter narrows a ticket listing. An empty selection places no
// constraint on that column.
type TicketFilter struct {
	Categories []domain.Category
	Urgencies  []domain.Urgency
	Statuses   []domain.TicketStatus
	ResolvedBy []domain.ResolvedBy
	// Search matches ticket id, query, solution and department, case-insensitively.
	Search string
}

// IsZero reports whether the filter selects everything.
func (f TicketFilter) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Urgencies) == 0 && len(f.Statuses) == 0 &&
		len(f.ResolvedBy) == 0 && strings.TrimSpace(f.Search) == ""
}

// Matches reports whether a ticket passes every constraint.
func (f TicketFilter) Matches(t domain.Ticket) bool {
	if !contains(f.Categories, t.Category) ||
		!contains(f.Urgencies, t.Urgency) ||
		!contains(f.Statuses, t.Status) ||
		!contains(f.ResolvedBy, t.ResolvedBy) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{t.ID, t.UserQuery, t.Solution, t.Department} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Filter returns matching tickets, newest first.
func Filter(tickets []domain.Ticket, f TicketFilter) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out
}

// FilterOptions lists the distinct values present per filterable column, in
// first-seen order.
type FilterOptions struct {
	Categories []string `json:"categories"`
	Urgencies  []string `json:"urgencies"`
	Statuses   []string `json:"statuses"`
	ResolvedBy []string `json:"resolved_by"`
}

// Options collects filter choices from the tickets actually stored.
func Options(tickets []domain.Ticket) FilterOptions {
	opts := FilterOptions{
		Categories: []string{},
		Urgencies:  []string{},
		Statuses:   []string{},
		ResolvedBy: []string{},
	}
	seen := map[string]struct{}{}
	add := func(dst *[]string, column, value string) {
		key := column + "\x00" + value
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		*dst = append(*dst, value)
	}
	for _, t := range tickets {
		add(&opts.Categories, "category", string(t.Category))
		add(&opts.Urgencies, "urgency", string(t.Urgency))
		add(&opts.Statuses, "status", string(t.Status))
		add(&opts.ResolvedBy, "resolved_by", string(t.ResolvedBy))
	}
	return opts
}

func contains[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
