package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/qschema/internal/config"
)

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "qschema",
		Short:         "Validate questionnaire schema documents",
		Long:          "qschema checks questionnaire schemas for duplicate ids, routing gaps, numeric range and date problems.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	root.AddCommand(newValidateCmd(cfg))
	root.AddCommand(newServeCmd(cfg))
	return root
}

// newLogger builds the JSON logger used by every subcommand.
func newLogger(cmd *cobra.Command) *slog.Logger {
	var level slog.Level
	name, _ := cmd.Flags().GetString("log-level")
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
