package analytics

import "github.com/spec-kit/helpdesk-service/internal/domain"

// ComputeStatistics scans the tickets once. An empty set yields all zeros.
func ComputeStatistics(tickets []domain.Ticket) domain.Statistics {
	stats := domain.Statistics{TotalTickets: len(tickets)}
	if len(tickets) == 0 {
		return stats
	}
	var confidenceSum float64
	for _, t := range tickets {
		switch t.ResolvedBy {
		case domain.ResolvedByAI:
			stats.AIResolved++
		case domain.ResolvedByEscalated:
			stats.Escalated++
		}
		confidenceSum += t.Confidence
	}
	total := float64(stats.TotalTickets)
	stats.ResolutionRate = float64(stats.AIResolved) / total * 100
	stats.AvgConfidence = confidenceSum / total
	return stats
}
