// Command wta launches and supervises AI coding agents, one per task, each
// in its own git worktree and tmux window.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/config"
	"github.com/wta-dev/wta/internal/logging"
)

var (
	version = "0.1.0"
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wta",
		Short: "Orchestrate AI coding agents in isolated git worktrees",
		Long: `wta launches AI coding agent CLIs (Claude, Codex, Gemini, and others)
as local subprocesses, one per task, each isolated in its own git worktree
and tmux window. It tracks each agent's lifecycle to completion and offers
merge and pull-request integration paths back to the base branch.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.wta/config.yaml)")

	rootCmd.AddCommand(
		newLaunchCmd(),
		newListCmd(),
		newStatusCmd(),
		newAttachCmd(),
		newMergeCmd(),
		newPRCmd(),
		newDiffCmd(),
		newRemoveCmd(),
		newPruneCmd(),
		newWorktreeCmd(),
		newSwitchCmd(),
		newDashboardCmd(),
		newInitCmd(),
		newEventsCmd(),
		newClaudeSkillCmd(),
		newQuickstartCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wta version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// loadConfig resolves the effective config path (--config flag, else the
// default) and loads it, initializing the global logger as a side effect.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}
