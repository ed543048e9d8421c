package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/orchestrator"
	"github.com/wta-dev/wta/internal/provider"
)

func newLaunchCmd() *cobra.Command {
	var (
		branch      string
		baseBranch  string
		providerStr string
		extraArgs   string
	)

	cmd := &cobra.Command{
		Use:   "launch <task>",
		Short: "Launch a new agent in an isolated worktree",
		Long: `Launch spawns a new agent subprocess to work on <task>.

A fresh git worktree is created off the current (or specified) base
branch, a tmux window is opened inside it, and the chosen provider CLI is
started there with the task piped in as its prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			providerName, err := resolveProviderName(providerStr, cfg.DefaultProvider)
			if err != nil {
				return err
			}

			ctx := context.Background()
			orch, closeFn, err := newOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			var extra []string
			if extraArgs != "" {
				extra = strings.Fields(extraArgs)
			}

			id, err := orch.Launch(ctx, orchestrator.LaunchRequest{
				Task:       args[0],
				Branch:     branch,
				BaseBranch: baseBranch,
				Provider:   providerName,
				ExtraArgs:  extra,
			})
			if err != nil {
				return err
			}

			agent, _ := orch.Get(id)
			fmt.Printf("Launched agent %s on branch %s\n", id, agent.Branch)
			fmt.Printf("  worktree: %s\n", agent.WorktreePath)
			fmt.Printf("  attach:   wta attach %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch to create or attach to (default wta/<id>)")
	cmd.Flags().StringVar(&baseBranch, "base", "", "base branch to fork from (default current branch)")
	cmd.Flags().StringVar(&providerStr, "provider", "", "provider CLI to launch (default from config)")
	cmd.Flags().StringVar(&extraArgs, "args", "", "extra arguments passed through to the provider binary")

	return cmd
}

// resolveProviderName picks the provider for a launch: providerStr if the
// caller passed --provider, otherwise defaultProvider from config.yaml.
// Both are accepted case-insensitively since the enumeration itself is
// lowercase (spec.md §6) but users and config files alike tend to type
// "Claude".
func resolveProviderName(providerStr, defaultProvider string) (provider.Name, error) {
	name := provider.Name(strings.ToLower(providerStr))
	if providerStr == "" {
		name = provider.Name(strings.ToLower(defaultProvider))
	}
	if !name.Valid() {
		return "", fmt.Errorf("unknown provider %q", name)
	}
	return name, nil
}
