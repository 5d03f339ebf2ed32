package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
)

func statsCommand() *cobra.Command {
	var assemblyID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print quorum and hourly arrival counts for an assembly",
		Run: func(cmd *cobra.Command, _ []string) {
			logger, cfg := commonRun()
			ctx := cmd.Context()

			st, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				logger.Error("open store", "component", "stats", "error", err)
				os.Exit(1)
			}
			defer closeStore()

			svc := service.NewStatsService(st)
			quorum, err := svc.QuorumStats(ctx, assemblyID)
			if err == nil {
				var hourly map[string]int
				hourly, err = svc.HourlyEntryCounts(ctx, assemblyID)
				if err == nil {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					err = enc.Encode(map[string]any{"quorum": quorum, "hourly": hourly})
				}
			}
			if err != nil {
				logger.Error("stats", "component", "stats", "assembly_id", assemblyID, "error", err)
				closeStore()
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVarP(&assemblyID, "assembly", "a", "", "assembly id")
	_ = cmd.MarkFlagRequired("assembly")
	return cmd
}
