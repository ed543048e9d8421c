package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const claudeSkillMarkdown = `---
name: wta
description: Launch, monitor, and merge parallel coding-agent worktrees with wta.
---

# wta

wta runs each coding agent in its own git worktree and tmux window so
several tasks can progress in parallel without stepping on each other's
working tree.

- ` + "`wta launch \"<task>\" --provider claude`" + ` starts a new agent on a fresh branch.
- ` + "`wta list`" + ` shows every agent and its status.
- ` + "`wta status <id>`" + ` prints recent output from an agent's session.
- ` + "`wta diff <id>`" + ` shows what an agent changed against its base branch.
- ` + "`wta merge <id> --strategy squash`" + ` merges a finished agent's branch back.
- ` + "`wta pr <id>`" + ` pushes the branch and opens a pull request.
- ` + "`wta remove <id>`" + ` tears down an agent's worktree, branch, and session.

Prefer ` + "`wta list`" + ` before starting new work to avoid branch collisions.
`

func newClaudeSkillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claude-skill",
		Short: "Print a Claude Code skill definition for wta",
		Long: `claude-skill prints a SKILL.md describing wta's sub-commands, suitable
for dropping into a .claude/skills directory so an agent can operate wta
on itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(claudeSkillMarkdown)
			return nil
		},
	}
}
