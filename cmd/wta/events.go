package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/eventlog"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <id>",
		Short: "Show the recorded lifecycle events for an agent",
		Long: `events reads the audit trail written to the event_log database
(see the event_log section of the config). Prints a notice instead if
event logging is disabled or the agent has no recorded events.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.EventLog == nil || !cfg.EventLog.Enabled {
				fmt.Println("event logging is disabled; enable event_log.enabled in the config to record events")
				return nil
			}

			log, err := eventlog.Open(cfg.EventLog.Path)
			if err != nil {
				return err
			}
			defer log.Close()

			ctx := context.Background()
			events, err := log.ForAgent(ctx, args[0])
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}
			for _, e := range events {
				fmt.Printf("%s\t%s\t%s\n", e.At.Format("2006-01-02T15:04:05"), e.Kind, e.Detail)
			}
			return nil
		},
	}
}
