package analytics

import (
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Bucket is one labelled count.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DailyCount is the number of tickets created on one calendar day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

const dateLayout = "2006-01-02"

// CategoryDistribution counts tickets per category, largest first.
func CategoryDistribution(tickets []domain.Ticket) []Bucket {
	return countBy(tickets, func(t domain.Ticket) string { return string(t.Category) })
}

// UrgencyDistribution always reports High, Medium and Low in that order.
// Values outside the closed set are not counted.
func UrgencyDistribution(tickets []domain.Ticket) []Bucket {
	counts := make(map[domain.Urgency]int, len(domain.Urgencies))
	for _, t := range tickets {
		counts[t.Urgency]++
	}
	buckets := make([]Bucket, 0, len(domain.Urgencies))
	for _, u := range domain.Urgencies {
		buckets = append(buckets, Bucket{Label: string(u), Count: counts[u]})
	}
	return buckets
}

// DepartmentWorkload counts tickets per department, largest first.
func DepartmentWorkload(tickets []domain.Ticket) []Bucket {
	return countBy(tickets, func(t domain.Ticket) string { return t.Department })
}

// Timeline counts tickets per day, oldest first. Tickets without a
// timestamp are skipped.
func Timeline(tickets []domain.Ticket) []DailyCount {
	counts := map[string]int{}
	for _, t := range tickets {
		if t.Timestamp.IsZero() {
			continue
		}
		counts[t.Timestamp.Format(dateLayout)]++
	}
	days := make([]DailyCount, 0, len(counts))
	for day, n := range counts {
		days = append(days, DailyCount{Date: day, Count: n})
	}
	// ISO dates sort chronologically as strings.
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// Recent returns the last n tickets in insertion order, newest timestamp first.
func Recent(tickets []domain.Ticket, n int) []domain.Ticket {
	if n <= 0 || len(tickets) == 0 {
		return []domain.Ticket{}
	}
	start := len(tickets) - n
	if start < 0 {
		start = 0
	}
	recent := append([]domain.Ticket(nil), tickets[start:]...)
	sortNewestFirst(recent)
	return recent
}

func countBy(tickets []domain.Ticket, key func(domain.Ticket) string) []Bucket {
	counts := map[string]int{}
	for _, t := range tickets {
		counts[key(t)]++
	}
	buckets := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, Bucket{Label: label, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

func sortNewestFirst(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return newer(tickets[i].Timestamp, tickets[j].Timestamp)
	})
}

func newer(a, b time.Time) bool {
	return a.After(b)
}
