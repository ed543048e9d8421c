package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/merge"
)

func newMergeCmd() *cobra.Command {
	var (
		strategyStr string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "merge <id>",
		Short: "Integrate an agent's branch into its base branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			strategy := merge.Strategy(strategyStr)
			if strategyStr == "" {
				strategy = merge.Strategy(cfg.MergeStrategy)
			}

			ctx := context.Background()
			orch, closeFn, err := newOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := orch.Merge(ctx, args[0], strategy, force)
			if err != nil {
				return err
			}

			fmt.Println(result.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyStr, "strategy", "", "merge, rebase, or squash (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "merge even while the agent is still running")

	return cmd
}
