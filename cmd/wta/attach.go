package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newAttachCmd() *cobra.Command {
	var openCode bool

	cmd := &cobra.Command{
		Use:   "attach <id>",
		Short: "Foreground the tmux window hosting an agent",
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
			if openCode {
				if err := orch.OpenVSCode(id); err != nil {
					return err
				}
			}
			return orch.Attach(id)
		},
	}

	cmd.Flags().BoolVar(&openCode, "code", false, "also open the worktree in VS Code")
	return cmd
}
