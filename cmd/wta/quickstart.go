package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/config"
)

const quickstartText = `wta quickstart
==============

1. wta init
   Writes a default config to ~/.wta/config.yaml.

2. wta launch "implement the thing" --provider claude
   Creates a worktree + branch, launches the provider in a tmux window.

3. wta list
   Shows every agent's id, status, branch, and provider.

4. wta attach <id>
   Jumps into the agent's tmux window to watch or intervene.

5. wta diff <id>
   Reviews what changed before merging.

6. wta merge <id> --strategy squash
   Merges the finished branch back into its base.

7. wta dashboard --open
   Serves a live view of every agent at http://localhost:3847.

Run any sub-command with --help for its full flag list.
`

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "Print a short getting-started guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(quickstartText)

			path := config.DefaultConfigPath()
			if _, err := os.Stat(path); err != nil {
				fmt.Printf("\nNo config found at %s — run `wta init` to create one.\n", path)
			}
			return nil
		},
	}
}
