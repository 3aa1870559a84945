package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store-wide ticket statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := st.rt.Reports.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			headingColor.Fprintln(out, "Ticket statistics")
			fmt.Fprintf(out, "  Total tickets:    %d\n", stats.TotalTickets)
			fmt.Fprintf(out, "  Resolved by AI:   %d\n", stats.AIResolved)
			fmt.Fprintf(out, "  Escalated:        %d\n", stats.Escalated)
			fmt.Fprintf(out, "  Resolution rate:  %.1f%%\n", stats.ResolutionRate)
			fmt.Fprintf(out, "  Avg confidence:   %.0f%%\n", stats.AvgConfidence*100)
			return nil
		},
	}
}

func kbCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "kb [category]",
		Short: "Browse the knowledge base",
		Long:  "Without arguments, list categories and article counts. With a category, print its articles.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				articles := st.rt.Reports.KnowledgeBase(args[0])
				if len(articles) == 0 {
					faintColor.Fprintf(out, "No articles for %q.\n", args[0])
					return nil
				}
				for _, a := range articles {
					headingColor.Fprintln(out, a.Title)
					fmt.Fprintf(out, "    %s\n", indent(a.Solution))
				}
				return nil
			}

			catalog, err := st.rt.Reports.KnowledgeCatalog()
			if err != nil {
				return err
			}
			for _, category := range catalog.Categories() {
				fmt.Fprintf(out, "%-14s %d articles\n", category, len(catalog[category]))
			}
			return nil
		},
	}
}
