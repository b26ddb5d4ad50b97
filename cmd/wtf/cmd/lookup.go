package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/wtf/internal/acronym"
	"github.com/msto63/wtf/internal/wtf/source"
	"github.com/msto63/wtf/pkg/core/config"
	"github.com/msto63/wtf/pkg/core/version"
)

var lookupFile string

var lookupCmd = &cobra.Command{
	Use:   "lookup <acronym>",
	Short: "Look up an acronym",
	Long: `Fetches the dataset, resolves the acronym and prints the same text the
Slack command answers with.

Examples:
  wtf lookup VA
  wtf lookup --file ./acronyms.csv HTML`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVarP(&lookupFile, "file", "f", "", "read the dataset from a local file")
}

func runLookup(cmd *cobra.Command, args []string) error {
	raw, err := fetchDataset(cmd)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	fmt.Fprintln(cmd.OutOrStdout(), acronym.Resolve(acronym.Parse(raw), query))
	return nil
}

// fetchDataset reads the dataset from --file or the configured data URL
func fetchDataset(cmd *cobra.Command) (string, error) {
	location := appConfig.Source.DataURL
	if lookupFile != "" {
		location = lookupFile
	}
	if location == "" {
		return "", config.ErrNoDataURL
	}

	timeout := appConfig.Source.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fetcher := source.New(source.Config{
		URL:       location,
		Timeout:   timeout,
		MaxBytes:  appConfig.Source.MaxBytes,
		UserAgent: version.UserAgent(),
	})
	defer fetcher.CloseIdleConnections()

	raw, err := fetcher.Fetch(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("failed to fetch acronyms: %w", err)
	}
	return raw, nil
}
