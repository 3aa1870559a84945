package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var (
	headingColor = color.New(color.Bold)
	okColor      = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgYellow)
	faintColor   = color.New(color.FgHiBlack)
)

func urgencyLabel(u domain.Urgency) string {
	switch u {
	case domain.UrgencyHigh:
		return color.New(color.FgRed).Sprint(u)
	case domain.UrgencyMedium:
		return color.New(color.FgYellow).Sprint(u)
	case domain.UrgencyLow:
		return color.New(color.FgHiGreen).Sprint(u)
	default:
		return string(u)
	}
}

func statusLabel(s domain.TicketStatus) string {
	if s == domain.TicketStatusEscalated {
		return warnColor.Sprint(s)
	}
	return okColor.Sprint(s)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func printTicket(w io.Writer, t domain.Ticket) {
	headingColor.Fprintf(w, "%s\n", t.ID)
	fmt.Fprintf(w, "  Created:    %s\n", t.FormattedTimestamp())
	fmt.Fprintf(w, "  Category:   %s\n", t.Category)
	fmt.Fprintf(w, "  Urgency:    %s\n", urgencyLabel(t.Urgency))
	fmt.Fprintf(w, "  Status:     %s (by %s)\n", statusLabel(t.Status), t.ResolvedBy)
	fmt.Fprintf(w, "  Department: %s\n", t.Department)
	fmt.Fprintf(w, "  Confidence: %.0f%%\n", t.Confidence*100)
	fmt.Fprintf(w, "  Issue:\n    %s\n", indent(t.UserQuery))
	if t.Solution != "" {
		fmt.Fprintf(w, "  Solution:\n    %s\n", indent(t.Solution))
	}
}

func printAnalysis(w io.Writer, r domain.ClassificationResult) {
	headingColor.Fprintln(w, "Analysis")
	fmt.Fprintf(w, "  Category:   %s\n", r.Category)
	fmt.Fprintf(w, "  Urgency:    %s\n", urgencyLabel(r.Urgency))
	fmt.Fprintf(w, "  Department: %s\n", r.Department)
	fmt.Fprintf(w, "  Confidence: %.0f%%\n", r.Confidence*100)
	fmt.Fprintf(w, "  Solution:\n    %s\n", indent(r.Solution))
	if len(r.KnowledgeBaseArticles) > 0 {
		fmt.Fprintln(w, "  Related articles:")
		for _, a := range r.KnowledgeBaseArticles {
			fmt.Fprintf(w, "    - %s\n", a)
		}
	}
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n    ")
}
