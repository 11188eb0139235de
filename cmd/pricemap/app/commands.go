package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/cmd/pricemap/cmd/merge"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/run"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/storages"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/tiers"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(run.NewCommand(a))
	rootCmd.AddCommand(merge.NewCommand(a))

	rootCmd.AddCommand(storages.NewCommand(a))
	rootCmd.AddCommand(tiers.NewCommand(a))

	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pricemap %s\n  commit: %s\n  built: %s by %s\n",
				a.version, a.commit, a.date, a.builtBy)
			return err
		},
	}
}
