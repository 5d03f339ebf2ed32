package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Asamblea/internal/db"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			logger, cfg := commonRun()
			// Open applies pending migrations before returning.
			sqlDB, err := db.Open(cmd.Context(), db.Config{Path: cfg.DBPath, Env: cfg.Env})
			if err != nil {
				logger.Error("migrate", "component", "db", "error", err)
				os.Exit(1)
			}
			defer sqlDB.Close()

			versions, err := db.AppliedVersions(cmd.Context(), sqlDB)
			if err != nil {
				logger.Error("read schema versions", "component", "db", "error", err)
				os.Exit(1)
			}
			logger.Info("database up to date", "component", "db", "path", cfg.DBPath, "versions", versions)
		},
	}
}
