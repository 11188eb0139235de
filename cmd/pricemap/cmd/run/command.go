// Package run provides the run command.
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/globals"
	"github.com/agentstation/pricemap/internal/cmd/output"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

// Flags holds the run command flags.
type Flags struct {
	Catalog string
	Report  string
	Final   string
	Rows    string
}

// NewCommand creates the run command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Reconcile the catalog against live prices",
		Long: `Run queries the pricing API for every catalog item in batches, writes a
delta report and merges new prices and statuses into a final price sheet.

Progress is checkpointed after every batch. An interrupted run (Ctrl-C,
network outage, crash) resumes from the last committed batch when started
again with the same catalog.`,
		Example: `  pricemap run
  pricemap run --catalog output.xlsx --report changes.xlsx --final price.xlsx
  pricemap run --rows changed -o wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReconcile(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Catalog, "catalog", "", "catalog file (csv or xlsx)")
	cmd.Flags().StringVar(&flags.Report, "report", "", "delta report file (default changes_report_YYYYMMDD.xlsx)")
	cmd.Flags().StringVar(&flags.Final, "final", "", "final price sheet (default price_YYYYMMDD.xlsx)")
	cmd.Flags().StringVar(&flags.Rows, "rows", "none", "rows to print: none, changed, all")

	return cmd
}

func runReconcile(cmd *cobra.Command, app application.Application, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	filter, err := ParseRowFilter(flags.Rows)
	if err != nil {
		return err
	}

	fetcher, err := app.Fetcher()
	if err != nil {
		return err
	}
	store, err := app.CheckpointStore(ctx)
	if err != nil {
		return err
	}
	opts, err := app.Options()
	if err != nil {
		return err
	}

	quiet := globals.Parse(cmd).Quiet
	stderr := cmd.ErrOrStderr()
	opts = append(opts,
		pricemap.WithStore(store),
		pricemap.WithProgress(func(p reconciler.Progress) {
			if quiet {
				return
			}
			status := ""
			if p.Failed {
				status = " (failed)"
			}
			fmt.Fprintf(stderr, "Batch %d/%d: %s%s\n", p.Batch, p.Batches, p, status)
		}),
	)

	paths := OverridePaths(app.Paths(), flags)
	outcome, err := pricemap.Reconcile(ctx, fetcher, paths, opts...)
	if err != nil {
		if errors.IsCanceled(err) {
			logger.Warn().Msg("Interrupted; progress is kept in the checkpoint")
		}
		return err
	}

	return output.Outcome(cmd.OutOrStdout(), &globals.Flags{Output: app.OutputFormat()}, outcome, filter)
}

// OverridePaths replaces configured paths with non-empty flag values.
func OverridePaths(paths pricemap.Paths, flags *Flags) pricemap.Paths {
	if flags.Catalog != "" {
		paths.Catalog = flags.Catalog
	}
	if flags.Report != "" {
		paths.Report = flags.Report
	}
	if flags.Final != "" {
		paths.Final = flags.Final
	}
	return paths
}

// ParseRowFilter converts a --rows value.
func ParseRowFilter(s string) (output.RowFilter, error) {
	switch s {
	case "", "none":
		return output.RowsNone, nil
	case "changed":
		return output.RowsChanged, nil
	case "all":
		return output.RowsAll, nil
	default:
		return output.RowsNone, errors.NewValidationError("rows", s, "must be one of: none, changed, all")
	}
}
