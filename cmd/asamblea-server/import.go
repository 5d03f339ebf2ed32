package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
)

func importCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create an assembly from a YAML roster file",
		Run: func(cmd *cobra.Command, _ []string) {
			logger, cfg := commonRun()
			ctx := cmd.Context()

			f, err := os.Open(file)
			if err != nil {
				logger.Error("open roster", "component", "import", "error", err)
				os.Exit(1)
			}
			req, err := parseRoster(f)
			f.Close()
			if err != nil {
				logger.Error("parse roster", "component", "import", "file", file, "error", err)
				os.Exit(1)
			}

			st, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				logger.Error("open store", "component", "import", "error", err)
				os.Exit(1)
			}
			defer closeStore()

			svc := service.NewAssemblyService(st, service.AssemblyOptions{Logger: logger, Location: cfg.Location})
			a, err := svc.Create(ctx, req)
			if err != nil {
				logger.Error("create assembly", "component", "import", "error", err)
				closeStore()
				os.Exit(1)
			}
			logger.Info("assembly imported", "component", "import", "assembly_id", a.ID, "records", len(req.Roster))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			_ = enc.Encode(map[string]any{"id": a.ID, "title": a.Title, "records": len(req.Roster)})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "roster YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
