// Package cmd provides the cicli CLI commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeintel/engine/internal/logging"
	"github.com/codeintel/engine/pkg/version"
)

var (
	dbURL    string
	redisURL string
	debug    bool

	loggingCleanup func()
)

// NewRootCmd builds the cicli root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cicli",
		Short:   "Operator CLI for the code-intelligence engine",
		Long:    `cicli uploads repositories for indexing, runs hybrid search, walks the cross-reference graph, and checks store consistency.`,
		Version: version.Version,
	}
	cmd.SetVersionTemplate("cicli version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dbURL, "db-url", envOr("CODEINTEL_DB_URL", "postgres://localhost:5432/codeintel"), "Postgres connection string")
	cmd.PersistentFlags().StringVar(&redisURL, "redis-url", envOr("CODEINTEL_REDIS_URL", "redis://localhost:6379/0"), "Redis connection string")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging to ~/.codeintel/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newGraphCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newLogsCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debug {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
