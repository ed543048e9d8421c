package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/orchestrator"
	"github.com/wta-dev/wta/internal/state"
)

func newPruneCmd() *cobra.Command {
	var (
		all       bool
		statusStr string
		inactive  bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove agents matching a status filter",
		Long: `prune removes agents in bulk.

Without flags, --inactive is assumed: every agent in a terminal state
(completed, failed, or merged) is cleaned up. --all removes everything,
including agents still running. --status restricts to a single status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			filter := orchestrator.PruneFilter{All: all, Inactive: inactive}
			if statusStr != "" {
				filter = orchestrator.PruneFilter{Status: state.Status(strings.ToLower(statusStr))}
			}
			if !all && statusStr == "" {
				filter.Inactive = true
			}

			ctx := context.Background()
			orch, closeFn, err := newOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			removed, err := orch.Prune(ctx, filter)
			if err != nil {
				return err
			}

			if len(removed) == 0 {
				fmt.Println("No agents matched.")
				return nil
			}
			fmt.Printf("Pruned %d agent(s): %v\n", len(removed), removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "remove every agent, including running ones")
	cmd.Flags().StringVar(&statusStr, "status", "", "remove only agents with this status (running, completed, failed, merged)")
	cmd.Flags().BoolVar(&inactive, "inactive", true, "remove agents in a terminal state (default)")

	return cmd
}
