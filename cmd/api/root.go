package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the bizdir CLI. Running it without a subcommand serves
// the HTTP API.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bizdir",
		Short:         "Business directory API",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
