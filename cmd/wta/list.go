package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all agents in this repository",
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

			for _, agent := range orch.List() {
				_, _ = orch.CheckStatus(ctx, agent.ID)
			}
			agents := orch.List()

			if jsonOut {
				data, err := json.MarshalIndent(agents, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if len(agents) == 0 {
				fmt.Println("No agents.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tBRANCH\tPROVIDER\tTASK")
			for _, agent := range agents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", agent.ID, agent.Status, agent.Branch, agent.Provider, truncate(agent.Task, 50))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

// truncate shortens s to at most n runes, appending "...". For n too small
// to fit the ellipsis it falls back to a bare cut, so the result never
// exceeds max(n, 3) runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n < 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
