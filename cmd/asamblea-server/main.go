package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/BrandonDHaskell/Asamblea/internal/config"
)

const programName = "asamblea-server"

var globalFlags = struct {
	debug bool
}{}

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), "component", programName)
}

// commonRun sets up the JSON logger and GOMAXPROCS, then loads the config.
func commonRun() (*slog.Logger, config.Config) {
	level := slog.LevelInfo
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: globalFlags.debug,
		Level:     level,
	}))
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		logger.Error("set GOMAXPROCS", "error", err)
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("load config", "component", programName, "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Proxy ledger and quorum server for owners' assemblies",
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, args)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(importCommand())
	rootCmd.AddCommand(statsCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
