package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/worktree"
)

func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Manage git worktrees directly, independent of the agent registry",
	}
	cmd.AddCommand(
		newWorktreeListCmd(),
		newWorktreeAddCmd(),
		newWorktreeRemoveCmd(),
		newWorktreePruneCmd(),
		newWorktreeSwitchCmd(),
	)
	return cmd
}

func newWorktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every worktree registered against this repository",
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

			wt := worktree.New(orch.RepoRoot())
			infos, err := wt.List(ctx)
			if err != nil {
				return err
			}
			for _, info := range infos {
				tag := ""
				if info.IsMain {
					tag = " (main)"
				}
				fmt.Printf("%s\t%s%s\n", info.Path, info.Branch, tag)
			}
			return nil
		},
	}
}

func newWorktreeAddCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "add <branch>",
		Short: "Create a worktree for branch outside the agent lifecycle",
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

			wt := worktree.New(orch.RepoRoot())
			if base == "" {
				base, err = wt.DefaultBranch(ctx)
				if err != nil {
					return err
				}
			}

			branch := args[0]
			path := filepath.Join(orch.WorktreesDir(), branch)
			if err := wt.Create(ctx, path, branch, base); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "base branch to fork from (default the repository's default branch)")
	return cmd
}

func newWorktreeRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a worktree by path",
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

			wt := worktree.New(orch.RepoRoot())
			return wt.Remove(ctx, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "remove even with uncommitted changes")
	return cmd
}

func newWorktreePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove worktrees with no corresponding registered agent",
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

			wt := worktree.New(orch.RepoRoot())
			infos, err := wt.List(ctx)
			if err != nil {
				return err
			}

			known := make(map[string]bool)
			for _, agent := range orch.List() {
				known[agent.WorktreePath] = true
			}

			var removed int
			for _, info := range infos {
				if info.IsMain || known[info.Path] {
					continue
				}
				if err := wt.Remove(ctx, info.Path, true); err != nil {
					fmt.Fprintf(os.Stderr, "failed to remove %s: %v\n", info.Path, err)
					continue
				}
				fmt.Println(info.Path)
				removed++
			}
			if removed == 0 {
				fmt.Println("No orphaned worktrees.")
			}
			return nil
		},
	}
}

func newWorktreeSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <branch>",
		Short: "Write a cd directive for the worktree hosting branch",
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

			wt := worktree.New(orch.RepoRoot())
			infos, err := wt.List(ctx)
			if err != nil {
				return err
			}
			for _, info := range infos {
				if info.Branch == args[0] {
					return writeSwitchDirective(info.Path)
				}
			}
			return fmt.Errorf("no worktree found for branch %q", args[0])
		},
	}
}
