// Package cmd provides the CLI commands for hyouka.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scoreflow/hyouka/internal/config"
	"github.com/scoreflow/hyouka/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg           config.Config
	otelShutdown  telemetry.Shutdown
	accountIDFlag string
)

// NewRootCmd creates the root command for the hyouka CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hyouka",
		Short:   "Feedback agreement analytics over a remote review corpus",
		Version: version,
		Long: `hyouka summarizes human/AI agreement, searches reviewed feedback
records, builds sampled training datasets, and aggregates LLM cost — all
against a remote feedback data service.`,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
	cmd.SetVersionTemplate("hyouka version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&accountIDFlag, "account-id", "", "Account to query (overrides HYOUKA_ACCOUNT_ID)")

	cmd.AddCommand(newSummarizeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newBuildDatasetCmd())
	cmd.AddCommand(newCostCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads .env, configuration, and telemetry before any subcommand runs.
func setup(c *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if accountIDFlag != "" {
		loaded.AccountID = accountIDFlag
	}
	cfg = loaded

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init(c.Context(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	otelShutdown = shutdown
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if otelShutdown != nil {
		return otelShutdown(context.Background())
	}
	return nil
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
