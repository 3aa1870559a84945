package dto

import (
	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AnalyzeRequest payload.
type AnalyzeRequest struct {
	UserQuery string `json:"user_query"`
}

// AnalysisResponse echoes the query next to its classification.
type AnalysisResponse struct {
	UserQuery string `json:"user_query"`
	domain.ClassificationResult
}

// SubmitTicketRequest stores a previously returned analysis.
type SubmitTicketRequest struct {
	UserQuery string                      `json:"user_query"`
	Analysis  domain.ClassificationResult `json:"analysis"`
}

// SubmitTicketResponse response.
type SubmitTicketResponse struct {
	TicketID string         `json:"ticket_id"`
	Ticket   TicketResponse `json:"ticket"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status     string `json:"status"`
	Department string `json:"department"`
}

// TicketResponse uses the persisted column names.
type TicketResponse struct {
	TicketID   string              `json:"ticket_id"`
	Timestamp  string              `json:"timestamp"`
	UserQuery  string              `json:"user_query"`
	Category   domain.Category     `json:"category"`
	Urgency    domain.Urgency      `json:"urgency"`
	Solution   string              `json:"solution"`
	Department string              `json:"department"`
	Status     domain.TicketStatus `json:"status"`
	ResolvedBy domain.ResolvedBy   `json:"resolved_by"`
	Confidence float64             `json:"confidence"`
}

// DashboardResponse is the analytics view payload.
type DashboardResponse struct {
	Statistics  domain.Statistics      `json:"statistics"`
	Categories  []analytics.Bucket     `json:"categories"`
	Urgencies   []analytics.Bucket     `json:"urgencies"`
	Departments []analytics.Bucket     `json:"departments"`
	Timeline    []analytics.DailyCount `json:"timeline"`
	Recent      []TicketResponse       `json:"recent"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	ts := ""
	if !t.Timestamp.IsZero() {
		ts = t.FormattedTimestamp()
	}
	return TicketResponse{
		TicketID:   t.ID,
		Timestamp:  ts,
		UserQuery:  t.UserQuery,
		Category:   t.Category,
		Urgency:    t.Urgency,
		Solution:   t.Solution,
		Department: t.Department,
		Status:     t.Status,
		ResolvedBy: t.ResolvedBy,
		Confidence: t.Confidence,
	}
}

// NewTicketResponses maps a slice, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketResponse(t))
	}
	return out
}

// NewDashboardResponse maps the analytics dashboard.
func NewDashboardResponse(d analytics.Dashboard) DashboardResponse {
	return DashboardResponse{
		Statistics:  d.Statistics,
		Categories:  d.Categories,
		Urgencies:   d.Urgencies,
		Departments: d.Departments,
		Timeline:    d.Timeline,
		Recent:      NewTicketResponses(d.Recent),
	}
}
