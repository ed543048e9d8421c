package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// TestCommandsDeclareExpectedFlags verifies each sub-command exposes the
// flags the CLI surface promises, mirroring how the teacher guards its
// cobra command tree against accidental flag renames.
func TestCommandsDeclareExpectedFlags(t *testing.T) {
	cmds := map[string]func() *cobra.Command{
		"launch":    newLaunchCmd,
		"list":      newListCmd,
		"status":    newStatusCmd,
		"attach":    newAttachCmd,
		"merge":     newMergeCmd,
		"pr":        newPRCmd,
		"diff":      newDiffCmd,
		"remove":    newRemoveCmd,
		"prune":     newPruneCmd,
		"dashboard": newDashboardCmd,
		"init":      newInitCmd,
	}

	tests := []struct {
		name  string
		flags []string
	}{
		{"launch", []string{"branch", "base", "provider", "args"}},
		{"list", []string{"json"}},
		{"status", []string{"lines"}},
		{"attach", []string{"code"}},
		{"merge", []string{"strategy", "force"}},
		{"pr", []string{"title", "body", "force"}},
		{"diff", []string{"viewer"}},
		{"remove", []string{"force"}},
		{"prune", []string{"all", "status", "inactive"}},
		{"dashboard", []string{"port", "open", "prune-schedule"}},
		{"init", []string{"force"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			newCmd, ok := cmds[tc.name]
			if !ok {
				t.Fatalf("no constructor registered for %q", tc.name)
			}
			cmd := newCmd()
			for _, f := range tc.flags {
				if cmd.Flags().Lookup(f) == nil {
					t.Errorf("%s: missing flag --%s", tc.name, f)
				}
			}
		})
	}
}

func TestWorktreeSubcommandsExist(t *testing.T) {
	root := newWorktreeCmd()
	for _, name := range []string{"list", "add", "remove", "prune", "switch"} {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("worktree: missing subcommand %q", name)
		}
	}
}

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	orig := cfgFile
	cfgFile = filepath.Join(dir, "does-not-exist.yaml")
	t.Cleanup(func() { cfgFile = orig })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.DefaultProvider != "claude" {
		t.Errorf("DefaultProvider = %q, want claude", cfg.DefaultProvider)
	}
}
