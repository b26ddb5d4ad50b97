package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/wtf/internal/wtf/store"
)

var statsLimit int

// errStatsDisabled is returned when [stats] enabled is false
var errStatsDisabled = errors.New("lookup statistics are disabled (set [stats] enabled = true)")

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lookup statistics",
	Long: `Prints lookup totals and the acronyms most often asked for but missing
from the dataset. Reads the stats store configured in [stats].`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 10, "number of keywords to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	if !appConfig.Stats.Enabled {
		return errStatsDisabled
	}

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: appConfig.Stats.Path})
	if err != nil {
		return fmt.Errorf("failed to open stats store: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	totals, err := s.Totals(ctx)
	if err != nil {
		return err
	}
	missed, err := s.Top(ctx, store.OutcomeNotFound, statsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Resolved:  %d\n", totals[store.OutcomeResolved])
	fmt.Fprintf(out, "Not found: %d\n", totals[store.OutcomeNotFound])
	if len(missed) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Most requested missing acronyms:")
	for _, k := range missed {
		fmt.Fprintf(out, "  %-12s %5d  (last %s)\n", k.Keyword, k.Count, k.LastSeenAt.Format("2006-01-02 15:04"))
	}
	return nil
}
