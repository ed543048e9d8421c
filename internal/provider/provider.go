// Package provider assembles the shell command used to launch a coding
// agent's CLI inside its worktree. It performs no I/O: every function here
// is a pure string builder.
package provider

import (
	"fmt"
	"strings"

	"github.com/wta-dev/wta/internal/tmux"
)

// Name enumerates the supported agent CLIs.
type Name string

const (
	Claude     Name = "claude"
	Codex      Name = "codex"
	Gemini     Name = "gemini"
	Deepagents Name = "deepagents"
	Amp        Name = "amp"
	Opencode   Name = "opencode"
)

// Valid reports whether n is one of the fixed provider enumeration.
func (n Name) Valid() bool {
	switch n {
	case Claude, Codex, Gemini, Deepagents, Amp, Opencode:
		return true
	}
	return false
}

// defaultAllowedTools enumerates the safe read-only and build commands, plus
// commit-related git operations, Claude may use without prompting.
var defaultAllowedTools = []string{
	"Read", "Glob", "Grep", "Bash(git status:*)", "Bash(git diff:*)",
	"Bash(git log:*)", "Bash(git add:*)", "Bash(git commit:*)",
	"Bash(go build:*)", "Bash(go test:*)", "Bash(go vet:*)",
	"Bash(npm test:*)", "Bash(npm run build:*)",
}

func binaryFor(name Name) string {
	switch name {
	case Claude:
		return "claude"
	case Codex:
		return "codex"
	case Gemini:
		return "gemini"
	case Deepagents:
		return "deepagents"
	case Amp:
		return "amp"
	case Opencode:
		return "opencode"
	default:
		return strings.ToLower(string(name))
	}
}

// flagsFor returns the default flag tokens for name, given the directory
// the status file lives in (used by Claude's wildcard write permission) and
// any extra_args the caller supplied.
func flagsFor(name Name, statusDir string, extraArgs []string) []string {
	for _, a := range extraArgs {
		if name == Claude && a == "--dangerously-allow-all" {
			return nil
		}
	}

	switch name {
	case Claude:
		allowed := append(append([]string{}, defaultAllowedTools...), fmt.Sprintf("Write(%s/*)", statusDir))
		return []string{
			"--permission-mode", "acceptEdits",
			"--allowedTools", strings.Join(allowed, ","),
		}
	case Codex:
		return []string{"exec", "--full-auto", "-"}
	case Gemini:
		return []string{"-y"}
	case Deepagents:
		return []string{"--auto-approve"}
	case Amp:
		return []string{"--dangerously-allow-all"}
	case Opencode:
		return nil
	default:
		return nil
	}
}

// Build produces the single shell command string used to launch the given
// provider against promptFile inside worktreePath, of the shape:
//
//	cd <worktree> && cat <prompt_file> | <binary> <flags> <extra_args>
func Build(name Name, worktreePath, promptFile, statusDir string, extraArgs []string) string {
	binary := binaryFor(name)
	flags := flagsFor(name, statusDir, extraArgs)

	tokens := make([]string, 0, len(flags)+len(extraArgs)+1)
	tokens = append(tokens, binary)
	for _, f := range flags {
		tokens = append(tokens, quoteArg(f))
	}
	for _, a := range extraArgs {
		tokens = append(tokens, quoteArg(a))
	}

	return fmt.Sprintf("cd %s && cat %s | %s",
		quoteArg(worktreePath), quoteArg(promptFile), strings.Join(tokens, " "))
}

// quoteArg leaves a token made only of shell-safe characters bare and
// single-quotes anything else (spaces, parentheses, globs, quotes).
func quoteArg(s string) string {
	if s == "" || strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:,@+%") != "" {
		return tmux.ShellQuote(s)
	}
	return s
}
