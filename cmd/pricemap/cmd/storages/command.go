// Package storages provides the storages command.
package storages

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/globals"
	"github.com/agentstation/pricemap/internal/cmd/output"
	"github.com/agentstation/pricemap/internal/cmd/table"
	"github.com/agentstation/pricemap/internal/sources/autotrade"
)

// NewCommand creates the storages command.
func NewCommand(app application.Application) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "storages",
		GroupID: "info",
		Short:   "List supplier warehouses",
		Long: `Storages lists the warehouses reported by the pricing API. Only warehouses
open for realization or delivery are queried during a run; pass --all to
include the rest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetcher, err := app.Fetcher()
			if err != nil {
				return err
			}
			list, err := fetcher.ListStorages(cmd.Context())
			if err != nil {
				return err
			}
			if !all {
				list = Eligible(list)
			}
			app.Logger().Debug().Int("storages", len(list)).Msg("Storages listed")

			return output.Render(cmd.OutOrStdout(), &globals.Flags{Output: app.OutputFormat()}, list,
				func(bool) table.Data { return table.StoragesToTableData(list) })
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include warehouses not used for pricing")

	return cmd
}

// Eligible keeps the warehouses a run queries.
func Eligible(list []autotrade.Storage) []autotrade.Storage {
	out := make([]autotrade.Storage, 0, len(list))
	for _, s := range list {
		if s.Eligible() {
			out = append(out, s)
		}
	}
	return out
}
