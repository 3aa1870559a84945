package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// DefaultExportPath is where export writes when -o is not given.
const DefaultExportPath = "helpdesk_tickets.csv"

type filterFlags struct {
	categories []string
	urgencies  []string
	statuses   []string
	resolvedBy []string
	search     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "only these categories (repeat or comma-separate)")
	cmd.Flags().StringSliceVar(&f.urgencies, "urgency", nil, "only these urgencies")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "only these statuses")
	cmd.Flags().StringSliceVar(&f.resolvedBy, "resolved-by", nil, "only these resolvers (AI, Escalated)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive text search")
}

func (f *filterFlags) filter() analytics.TicketFilter {
	filter := analytics.TicketFilter{Search: f.search}
	for _, v := range f.categories {
		filter.Categories = append(filter.Categories, domain.Category(v))
	}
	for _, v := range f.urgencies {
		filter.Urgencies = append(filter.Urgencies, domain.Urgency(v))
	}
	for _, v := range f.statuses {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(v))
	}
	for _, v := range f.resolvedBy {
		filter.ResolvedBy = append(filter.ResolvedBy, domain.ResolvedBy(v))
	}
	return filter
}

func listCmd(st *state) *cobra.Command {
	var (
		flags filterFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := st.rt.Tickets.List(cmd.Context(), flags.filter())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tickets := result.Tickets
			if limit > 0 && limit < len(tickets) {
				tickets = tickets[:limit]
			}
			if len(tickets) == 0 {
				faintColor.Fprintln(out, "No tickets match.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tCATEGORY\tURGENCY\tSTATUS\tDEPARTMENT\tISSUE")
			for _, t := range tickets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.FormattedTimestamp(), t.Category, t.Urgency, t.Status, t.Department, truncate(t.UserQuery, 48))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			faintColor.Fprintf(out, "Showing %d of %d tickets\n", len(tickets), result.Total)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n tickets")
	return cmd
}

func showCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show one ticket in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := st.rt.Tickets.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTicket(cmd.OutOrStdout(), *ticket)
			return nil
		},
	}
}

func exportCmd(st *state) *cobra.Command {
	var (
		flags  filterFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tickets as CSV",
		Long:  "Write tickets as CSV with the stored column layout. Use -o - for stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			n, err := st.rt.Tickets.Export(cmd.Context(), w, flags.filter())
			if err != nil {
				return err
			}
			if output != "-" {
				okColor.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d tickets to %s\n", n, output)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", DefaultExportPath, "destination file")
	return cmd
}

func classifyCmd(st *state) *cobra.Command {
	var resolve, escalate bool
	cmd := &cobra.Command{
		Use:   "classify <issue description>",
		Short: "Classify an issue and optionally store it",
		Long: `Classify an issue with the configured model.

By default nothing is stored. --resolve records the ticket as solved by the
suggested fix; --escalate routes it to the suggested department.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			analysis, err := st.rt.Tickets.Analyze(cmd.Context(), issue)
			if err != nil {
				return err
			}
			printAnalysis(out, *analysis)

			var ticket *domain.Ticket
			switch {
			case resolve:
				ticket, err = st.rt.Tickets.Resolve(cmd.Context(), strings.TrimSpace(issue), *analysis)
			case escalate:
				ticket, err = st.rt.Tickets.Escalate(cmd.Context(), strings.TrimSpace(issue), *analysis)
			default:
				return nil
			}
			if err != nil {
				return err
			}
			if ticket.Status == domain.TicketStatusEscalated {
				warnColor.Fprintf(out, "Ticket %s escalated to %s\n", ticket.ID, ticket.Department)
			} else {
				okColor.Fprintf(out, "✓ Ticket %s saved as resolved\n", ticket.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "store the ticket as resolved by the suggestion")
	cmd.Flags().BoolVar(&escalate, "escalate", false, "store the ticket as escalated")
	cmd.MarkFlagsMutuallyExclusive("resolve", "escalate")
	return cmd
}

func setStatusCmd(st *state) *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "set-status <ticket-id> <Resolved|Escalated>",
		Short: "Change a ticket's status",
		Long:  "Change a ticket's status. --department also reroutes the ticket and marks it escalated.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := st.rt.Tickets.UpdateStatus(cmd.Context(), args[0], args[1], department)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s (%s)\n", ticket.ID, ticket.Status, ticket.Department)
			return nil
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "route the ticket to this department")
	return cmd
}
