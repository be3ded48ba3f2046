// Package main provides the rankcompare binary: batch comparison of ranking
// files and the HTTP comparison service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rankcompare",
		Short: "Compare system rankings against a gold ranking",
		Long: `rankcompare scores ranked lists against a gold standard with Spearman's rho,
precision and recall at fixed cutoffs and mean average precision.

Examples:
  rankcompare compare gold.txt runs/                    # Compare every runs/*.txt
  rankcompare compare gold.txt a.txt b.txt --cutoffs 5,10
  rankcompare serve --port 8080 --data-dir ./data       # Start the HTTP API`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (YAML)")

	rootCmd.AddCommand(newCompareCmd(), newServeCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rankcompare %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// loadConfig loads the configuration named by the persistent --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
