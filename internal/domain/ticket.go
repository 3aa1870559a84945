package domain

import (
	"strings"
	"time"
)

// TimestampLayout is the second-precision layout used for ticket timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Category enumerates the issue classes a ticket can fall into.
type Category string

const (
	CategorySoftware    Category = "Software"
	CategoryHardware    Category = "Hardware"
	CategoryNetwork     Category = "Network"
	CategoryLoginAccess Category = "Login/Access"
	CategoryOther       Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategorySoftware,
	CategoryHardware,
	CategoryNetwork,
	CategoryLoginAccess,
	CategoryOther,
}

// Urgency enumerates ticket urgency levels.
type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

// Urgencies lists urgency levels from most to least urgent.
var Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow}

// Rank orders urgencies for sorting; lower is more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyLow:
		return 2
	default:
		return len(Urgencies)
	}
}

// TicketStatus enumerates where a ticket ended up.
type TicketStatus string

const (
	TicketStatusResolved  TicketStatus = "Resolved"
	TicketStatusEscalated TicketStatus = "Escalated"
)

// ResolvedBy records who resolved the ticket.
type ResolvedBy string

const (
	ResolvedByAI        ResolvedBy = "AI"
	ResolvedByEscalated ResolvedBy = "Escalated"
)

// Ticket is one persisted, classified support request.
type Ticket struct {
	ID         string
	Timestamp  time.Time
	UserQuery  string
	Category   Category
	Urgency    Urgency
	Solution   string
	Department string
	Status     TicketStatus
	ResolvedBy ResolvedBy
	Confidence float64
}

// FormattedTimestamp renders the timestamp the way it is persisted.
func (t Ticket) FormattedTimestamp() string {
	return t.Timestamp.Format(TimestampLayout)
}

// TicketInput carries caller-provided ticket fields. Zero values mean "not
// provided" and are replaced with defaults by NewTicket.
type TicketInput struct {
	UserQuery  string
	Category   Category
	Urgency    Urgency
	Solution   string
	Department string
	Status     TicketStatus
	ResolvedBy ResolvedBy
	Confidence *float64
}

// NewTicket builds a fully populated ticket. It is the only place ticket
// defaults are applied.
func NewTicket(id string, createdAt time.Time, in TicketInput) Ticket {
	ticket := Ticket{
		ID:         id,
		Timestamp:  createdAt.Truncate(time.Second),
		UserQuery:  NormalizeLineEndings(in.UserQuery),
		Category:   NormalizeCategory(string(in.Category)),
		Urgency:    NormalizeUrgency(string(in.Urgency)),
		Solution:   NormalizeLineEndings(in.Solution),
		Department: strings.TrimSpace(in.Department),
		Status:     NormalizeStatus(string(in.Status)),
		ResolvedBy: NormalizeResolvedBy(string(in.ResolvedBy)),
	}
	if ticket.Department == "" {
		ticket.Department = DepartmentGeneralSupport
	}
	if in.Confidence != nil {
		ticket.Confidence = ClampConfidence(*in.Confidence)
	}
	return ticket
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeLineEndings rewrites CRLF and lone CR as LF. Stored free text
// always uses LF so every ticket store returns it unchanged.
func NormalizeLineEndings(text string) string {
	return lineEndings.Replace(text)
}

// ParseCategory matches a category case-insensitively.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory maps unknown or empty values to CategoryOther.
func NormalizeCategory(raw string) Category {
	if c, ok := ParseCategory(raw); ok {
		return c
	}
	return CategoryOther
}

// ParseUrgency matches an urgency case-insensitively.
func ParseUrgency(raw string) (Urgency, bool) {
	raw = strings.TrimSpace(raw)
	for _, u := range Urgencies {
		if strings.EqualFold(raw, string(u)) {
			return u, true
		}
	}
	return "", false
}

// NormalizeUrgency maps unknown or empty values to UrgencyLow.
func NormalizeUrgency(raw string) Urgency {
	if u, ok := ParseUrgency(raw); ok {
		return u
	}
	return UrgencyLow
}

// ParseStatus matches a ticket status case-insensitively.
func ParseStatus(raw string) (TicketStatus, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range []TicketStatus{TicketStatusResolved, TicketStatusEscalated} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// NormalizeStatus maps unknown or empty values to TicketStatusResolved.
func NormalizeStatus(raw string) TicketStatus {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return TicketStatusResolved
}

// ParseResolvedBy matches a resolution provenance case-insensitively.
func ParseResolvedBy(raw string) (ResolvedBy, bool) {
	raw = strings.TrimSpace(raw)
	for _, r := range []ResolvedBy{ResolvedByAI, ResolvedByEscalated} {
		if strings.EqualFold(raw, string(r)) {
			return r, true
		}
	}
	return "", false
}

// NormalizeResolvedBy maps unknown or empty values to ResolvedByAI.
func NormalizeResolvedBy(raw string) ResolvedBy {
	if r, ok := ParseResolvedBy(raw); ok {
		return r
	}
	return ResolvedByAI
}

// ClampConfidence bounds a confidence score to [0,1].
func ClampConfidence(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
