package main

import (
	"context"
	"fmt"

	"github.com/wta-dev/wta/internal/config"
	"github.com/wta-dev/wta/internal/eventlog"
	"github.com/wta-dev/wta/internal/merge"
	"github.com/wta-dev/wta/internal/orchestrator"
)

// newOrchestrator wires an Orchestrator against the current directory's
// repository, opening the event log when the config enables it. The
// returned close function must be called once the caller is done.
func newOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, func(), error) {
	var events *eventlog.Log
	closeFn := func() {}

	if cfg.EventLog != nil && cfg.EventLog.Enabled {
		log, err := eventlog.Open(cfg.EventLog.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open event log: %w", err)
		}
		events = log
		closeFn = func() { _ = log.Close() }
	}

	strategy := merge.Strategy(cfg.MergeStrategy)
	orch, err := orchestrator.New(ctx, orchestrator.Config{
		DefaultMergeStrategy: strategy,
		EventLog:             events,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return orch, closeFn, nil
}
