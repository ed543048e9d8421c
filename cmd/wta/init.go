package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wta-dev/wta/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `init writes ~/.wta/config.yaml with default settings (or a custom
path via --config on the root command). Use --force to overwrite an
existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists; use --force to overwrite", path)
				}
			}

			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
