package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show an agent's status and recent output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			orch, closeFn, err := newOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			id := args[0]
			status, err := orch.CheckStatus(ctx, id)
			if err != nil {
				return err
			}
			agent, _ := orch.Get(id)

			fmt.Printf("Agent %s: %s\n", id, status)
			fmt.Printf("  task:     %s\n", agent.Task)
			fmt.Printf("  branch:   %s (from %s)\n", agent.Branch, agent.BaseBranch)
			fmt.Printf("  provider: %s\n", agent.Provider)
			fmt.Printf("  launched: %s\n", agent.LaunchedAt.Format("2006-01-02 15:04:05"))
			if agent.CompletedAt != nil {
				fmt.Printf("  completed: %s\n", agent.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Println()

			output, err := orch.GetOutput(ctx, id, lines)
			if err != nil {
				return err
			}
			fmt.Println(output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "l", 50, "number of output lines to show")
	return cmd
}
