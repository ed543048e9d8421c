package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/orchestrator"
)

func newPRCmd() *cobra.Command {
	var (
		title string
		body  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "pr <id>",
		Short: "Push an agent's branch and open a pull request",
		Long:  `pr pushes the agent's branch to origin and shells out to the GitHub CLI (gh) to open a pull request against its base branch.`,
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

			url, err := orch.CreatePR(ctx, args[0], orchestrator.CreatePRRequest{
				Title: title,
				Body:  body,
				Force: force,
			})
			if err != nil {
				return err
			}

			fmt.Println(url)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "pull request title (default: the agent's task)")
	cmd.Flags().StringVar(&body, "body", "", "pull request body")
	cmd.Flags().BoolVar(&force, "force", false, "open a PR even while the agent is still running")

	return cmd
}
