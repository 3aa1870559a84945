package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Actor identifies who caused an event.
type Actor string

const (
	ActorRequester Actor = "requester"
	ActorAdmin     Actor = "admin"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload describes a newly stored ticket. It is also the
// payload of EventTicketEscalated.
type TicketCreatedPayload struct {
	Category   domain.Category     `json:"category"`
	Urgency    domain.Urgency      `json:"urgency"`
	Department string              `json:"department"`
	Status     domain.TicketStatus `json:"status"`
	ResolvedBy domain.ResolvedBy   `json:"resolved_by"`
	Confidence float64             `json:"confidence"`
	Preview    string              `json:"preview"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus     domain.TicketStatus `json:"old_status"`
	NewStatus     domain.TicketStatus `json:"new_status"`
	OldDepartment string              `json:"old_department"`
	NewDepartment string              `json:"new_department"`
}

// PayloadFromTicket builds the created/escalated payload.
func PayloadFromTicket(t domain.Ticket) TicketCreatedPayload {
	return TicketCreatedPayload{
		Category:   t.Category,
		Urgency:    t.Urgency,
		Department: t.Department,
		Status:     t.Status,
		ResolvedBy: t.ResolvedBy,
		Confidence: t.Confidence,
		Preview:    Preview(t.UserQuery, 120),
	}
}

// Preview shortens text to at most n runes.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
