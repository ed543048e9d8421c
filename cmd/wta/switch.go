package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// directiveEnvVar names the environment variable a shell wrapper function
// points at a scratch file so `wta switch` can hand a cd back to the
// caller's shell: the wta binary itself can never change its parent's
// working directory.
const directiveEnvVar = "WTA_DIRECTIVE_FILE"

func newSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id>",
		Short: "Change the calling shell's directory to an agent's worktree",
		Long: `switch resolves an agent by id and, if the shell integration is
installed (WTA_DIRECTIVE_FILE set by the wta() shell function), writes a
cd directive there for the wrapper to execute. Without the wrapper it just
prints the worktree path.`,
		Args: cobra.ExactArgs(1),
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

			agent, ok := orch.Get(args[0])
			if !ok {
				return fmt.Errorf("agent %q not found", args[0])
			}

			return writeSwitchDirective(agent.WorktreePath)
		},
	}
}

// writeSwitchDirective hands a cd back to the caller's shell via the
// WTA_DIRECTIVE_FILE protocol, falling back to printing the path when the
// shell wrapper isn't in use.
func writeSwitchDirective(path string) error {
	directiveFile := os.Getenv(directiveEnvVar)
	if directiveFile == "" {
		fmt.Println(path)
		return nil
	}
	return os.WriteFile(directiveFile, []byte("cd "+path+"\n"), 0o644)
}
