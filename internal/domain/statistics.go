package domain

// Statistics summarizes the ticket store.
type Statistics struct {
	TotalTickets   int     `json:"total_tickets"`
	AIResolved     int     `json:"ai_resolved"`
	Escalated      int     `json:"escalated"`
	ResolutionRate float64 `json:"resolution_rate"`
	AvgConfidence  float64 `json:"avg_confidence"`
}
