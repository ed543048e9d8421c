// Package config loads wta's YAML configuration, layering an optional file
// on top of hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wta-dev/wta/internal/logging"
)

// Config is wta's top-level configuration, loaded from ~/.wta/config.yaml
// or the path given by the root command's --config flag.
type Config struct {
	Version         string          `yaml:"version"`
	DefaultProvider string          `yaml:"default_provider"`
	MergeStrategy   string          `yaml:"merge_strategy"` // merge, rebase, squash
	WorktreesDir    string          `yaml:"worktrees_dir"`  // parsed only; the orchestrator always uses <repo>/.worktrees
	StateDir        string          `yaml:"state_dir"`      // parsed only; the orchestrator always uses <repo>/.worktree-agents
	Dashboard       *DashboardConfig `yaml:"dashboard"`
	Tmux            *TmuxConfig     `yaml:"tmux"`
	Logging         *logging.Config `yaml:"logging"`
	EventLog        *EventLogConfig `yaml:"event_log"`
}

// DashboardConfig holds the HTTP projection's bind address and auth token.
type DashboardConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"` // empty disables auth; the websocket's localhost-only origin check still applies
}

// TmuxConfig holds tmux window lifecycle tuning.
type TmuxConfig struct {
	KillGracePeriod time.Duration `yaml:"kill_grace_period"` // parsed only; the tmux manager kills windows without waiting
}

// EventLogConfig controls the optional sqlite-backed audit log.
type EventLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite file; default ~/.wta/events.db
}

// DefaultConfig returns wta's hardcoded defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:         "1",
		DefaultProvider: "claude",
		MergeStrategy:   "merge",
		Dashboard: &DashboardConfig{
			Host: "127.0.0.1",
			Port: 3847,
		},
		Tmux: &TmuxConfig{
			KillGracePeriod: 3 * time.Second,
		},
		Logging: logging.DefaultConfig(),
		EventLog: &EventLogConfig{
			Enabled: false,
			Path:    "~/.wta/events.db",
		},
	}
}

// Load reads and parses configuration from a YAML file at path. Environment
// variables in the file are expanded with os.ExpandEnv. If the file does not
// exist, defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.WorktreesDir = expandPath(cfg.WorktreesDir)
	cfg.StateDir = expandPath(cfg.StateDir)
	if cfg.EventLog != nil {
		cfg.EventLog.Path = expandPath(cfg.EventLog.Path)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns ~/.wta/config.yaml.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".wta", "config.yaml")
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Validate checks cfg for internally inconsistent settings.
func (c *Config) Validate() error {
	if c.Dashboard == nil {
		return fmt.Errorf("dashboard configuration is required")
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("invalid dashboard port: %d", c.Dashboard.Port)
	}
	switch c.MergeStrategy {
	case "merge", "rebase", "squash":
	default:
		return fmt.Errorf("invalid merge_strategy: %q", c.MergeStrategy)
	}
	return nil
}
