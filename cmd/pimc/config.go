package main

import (
	"github.com/spf13/cobra"
)

func getCmdConfig(gs *globalState) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}

			return cfg.Write(gs.stdOut)
		},
	}
}
