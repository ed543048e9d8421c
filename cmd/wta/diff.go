package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var viewer string

	cmd := &cobra.Command{
		Use:   "diff <id>",
		Short: "Show the diff between an agent's branch and its base branch",
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
			result, err := orch.Diff(ctx, id)
			if err != nil {
				return err
			}

			if viewer == "lumen" {
				return runLumen(result.Text)
			}

			fmt.Printf("%d file(s) changed, +%d -%d\n\n", len(result.FilesChanged), result.Insertions, result.Deletions)
			fmt.Print(result.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "git", "diff viewer: git (plain text) or lumen (interactive)")
	return cmd
}

// runLumen pipes a diff into lumen, an optional interactive diff viewer, if
// it is installed.
func runLumen(diff string) error {
	bin, err := exec.LookPath("lumen")
	if err != nil {
		return fmt.Errorf("lumen not found in PATH; install it or use --viewer git")
	}
	cmd := exec.Command(bin)
	cmd.Stdin = strings.NewReader(diff)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
