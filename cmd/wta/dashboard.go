package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/httpapi"
	"github.com/wta-dev/wta/internal/orchestrator"
)

func newDashboardCmd() *cobra.Command {
	var (
		port          int
		open          bool
		pruneSchedule string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the HTTP dashboard and live agent feed",
		Long: `dashboard starts the HTTP projection (REST + websocket) described
by the dashboard section of the config, optionally opening it in the
default browser. --prune-schedule takes a standard 5-field cron
expression and runs an inactive prune on that schedule for the lifetime
of the server, so completed agents don't pile up unattended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Dashboard.Port = port
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			orch, closeFn, err := newOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			var scheduler *cron.Cron
			if pruneSchedule != "" {
				scheduler = cron.New()
				if _, err := scheduler.AddFunc(pruneSchedule, func() {
					_, _ = orch.Prune(ctx, orchestrator.PruneFilter{Inactive: true})
				}); err != nil {
					return fmt.Errorf("invalid --prune-schedule: %w", err)
				}
				scheduler.Start()
				defer scheduler.Stop()
			}

			srv := httpapi.New(httpapi.Config{
				Host:      cfg.Dashboard.Host,
				Port:      cfg.Dashboard.Port,
				AuthToken: cfg.Dashboard.AuthToken,
			}, orch)

			url := fmt.Sprintf("http://%s:%d", cfg.Dashboard.Host, cfg.Dashboard.Port)
			fmt.Printf("Dashboard listening on %s\n", url)
			if open {
				openBrowser(url)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override the configured dashboard port")
	cmd.Flags().BoolVar(&open, "open", false, "open the dashboard in the default browser")
	cmd.Flags().StringVar(&pruneSchedule, "prune-schedule", "", "cron expression for an automatic inactive prune (e.g. \"0 * * * *\")")

	return cmd
}

// openBrowser best-effort launches url in the platform's default browser.
// Failure is non-fatal: the dashboard URL is already printed.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
