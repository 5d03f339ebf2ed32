package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store/memory"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store/sqlite"
	"github.com/BrandonDHaskell/Asamblea/internal/config"
	"github.com/BrandonDHaskell/Asamblea/internal/db"
)

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.Store == "memory" {
		if cfg.SeedDev {
			logger.Warn("dev seed is only available with the sqlite store", "component", "store")
		}
		return memory.New(), func() {}, nil
	}

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.SeedDev {
		if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{}); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("seed dev data: %w", err)
		}
		logger.Info("dev assembly ready", "component", "store", "assembly_id", db.DevAssemblyID)
	}

	writer := db.NewWorker(sqlDB)
	closeFn := func() {
		writer.Close()
		if err := sqlDB.Close(); err != nil {
			logger.Error("close database", "component", "store", "error", err)
		}
	}
	logger.Info("sqlite store opened", "component", "store", "path", cfg.DBPath)
	return sqlite.New(sqlDB, writer), closeFn, nil
}
