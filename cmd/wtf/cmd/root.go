package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/wtf/pkg/core/config"
	"github.com/msto63/wtf/pkg/core/logging"
)

var (
	cfgFile   string
	verbose   bool
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wtf",
	Short: "wtf - acronym lookup service",
	Long: `wtf answers acronym lookups from a shared CSV dataset.

Rows have four columns: acronym, definition, context, notes. Every request
fetches the dataset again, so edits are visible immediately.

Environment:
  SLACK_TOKENS  comma separated tokens accepted from callers
  DATA_URL      location of the dataset (http(s), file:// or a path)
  WTF_CONFIG    config file (default: ./configs/config.toml)`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration and applies the log settings before any
// logger is created
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.General.LogLevel
	if verbose {
		level = logging.LevelDebug.String()
	}
	logging.SetDefaults(logging.LoggerConfig{
		Level:  level,
		Format: cfg.General.LogFormat,
		Output: cmd.ErrOrStderr(),
	})

	appConfig = cfg
	return nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
