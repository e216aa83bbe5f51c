package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show facility counts by enrichment status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.CountByStatus(ctx)
		if err != nil {
			return err
		}

		statuses := make([]string, 0, len(counts))
		total := 0
		for s, n := range counts {
			statuses = append(statuses, s)
			total += n
		}
		sort.Strings(statuses)

		out := cmd.OutOrStdout()
		for _, s := range statuses {
			fmt.Fprintf(out, "%-14s %d\n", s, counts[s])
		}
		fmt.Fprintf(out, "%-14s %d\n", "total", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
