package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/wtf/internal/acronym"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Fuzzy search acronyms",
	Long: `Lists the acronyms whose key fuzzily matches pattern, best match first.

Examples:
  wtf search vet
  wtf search --limit 5 va`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of matches (0 = all)")
	searchCmd.Flags().StringVarP(&lookupFile, "file", "f", "", "read the dataset from a local file")
}

func runSearch(cmd *cobra.Command, args []string) error {
	raw, err := fetchDataset(cmd)
	if err != nil {
		return err
	}

	pattern := strings.Join(args, " ")
	matches := acronym.Search(acronym.Parse(raw), pattern, searchLimit)

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintf(out, "No acronyms match '%s'\n", pattern)
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%-12s %d definition(s)\n", m.Acronym, m.Entries)
	}
	return nil
}
