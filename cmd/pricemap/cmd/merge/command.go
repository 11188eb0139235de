// Package merge provides the merge command.
package merge

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/cmd/application"
	"github.com/agentstation/pricemap/cmd/pricemap/cmd/run"
	"github.com/agentstation/pricemap/internal/cmd/globals"
	"github.com/agentstation/pricemap/internal/cmd/output"
)

// NewCommand creates the merge command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &run.Flags{}

	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "core",
		Short:   "Merge an existing delta report into the catalog",
		Long: `Merge builds the final price sheet from a delta report written by an
earlier run, without contacting the pricing API.

Each row's status is derived again from its stock listing, rows carrying
the retail price of a zero wholesale price fall back to the old price, and
the first row per article and brand is merged into the catalog.`,
		Example: `  pricemap merge --report changes_report_20261019.xlsx
  pricemap merge --catalog output.csv --report changes.csv --final price.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := run.ParseRowFilter(flags.Rows)
			if err != nil {
				return err
			}
			opts, err := app.Options()
			if err != nil {
				return err
			}

			paths := run.OverridePaths(app.Paths(), flags)
			outcome, err := pricemap.Finalize(cmd.Context(), paths, opts...)
			if err != nil {
				return err
			}
			return output.Outcome(cmd.OutOrStdout(), &globals.Flags{Output: app.OutputFormat()}, outcome, filter)
		},
	}

	cmd.Flags().StringVar(&flags.Catalog, "catalog", "", "catalog file (csv or xlsx)")
	cmd.Flags().StringVar(&flags.Report, "report", "", "delta report to merge (default changes_report_YYYYMMDD.xlsx)")
	cmd.Flags().StringVar(&flags.Final, "final", "", "final price sheet (default price_YYYYMMDD.xlsx)")
	cmd.Flags().StringVar(&flags.Rows, "rows", "none", "rows to print: none, changed, all")

	return cmd
}
