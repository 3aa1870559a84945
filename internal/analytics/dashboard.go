package analytics

import "github.com/spec-kit/helpdesk-service/internal/domain"

// RecentTicketCount is how many tickets the dashboard lists.
const RecentTicketCount = 10

// Dashboard bundles everything the analytics view renders.
type Dashboard struct {
	Statistics  domain.Statistics
	Categories  []Bucket
	Urgencies   []Bucket
	Departments []Bucket
	Timeline    []DailyCount
	Recent      []domain.Ticket
}

// BuildDashboard aggregates the full ticket set.
func BuildDashboard(tickets []domain.Ticket) Dashboard {
	return Dashboard{
		Statistics:  ComputeStatistics(tickets),
		Categories:  CategoryDistribution(tickets),
		Urgencies:   UrgencyDistribution(tickets),
		Departments: DepartmentWorkload(tickets),
		Timeline:    Timeline(tickets),
		Recent:      Recent(tickets, RecentTicketCount),
	}
}
