// Package pricemap reconciles a supplier price list against live wholesale
// prices and stock.
//
// A reconciliation reads the catalog, queries the pricing API in batches of
// at most 60 items, writes a delta report with one row per catalog item and
// merges the new prices and statuses back into a final price sheet. Progress
// is checkpointed after every batch so an interrupted run resumes where it
// stopped.
//
// Example usage:
//
//	client, err := autotrade.New(os.Getenv("AUTOTRADE_AUTH_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcome, err := pricemap.Reconcile(ctx, client, pricemap.Paths{Catalog: "output.xlsx"},
//	    pricemap.WithStore(checkpoint.NewFileStore("checkpoint.json")),
//	    pricemap.OnItemUpdated(func(old, new catalogs.Item) {
//	        log.Printf("%s: %s -> %s", old.Key(), old.Price, new.Price)
//	    }),
//	)
//
// Finalize repeats only the merge step from a delta report produced earlier.
package pricemap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/pricemap/internal/tabular"
	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

// Paths names the files a run reads and writes.
type Paths struct {
	Catalog string // source catalog, csv or xlsx
	Report  string // delta report; dated default when empty
	Final   string // merged price sheet; dated default when empty
}

// WithDefaults fills empty paths with the dated defaults for day t.
func (p Paths) WithDefaults(t time.Time) Paths {
	if p.Catalog == "" {
		p.Catalog = constants.DefaultCatalogFile
	}
	day := t.Format(constants.TimeFormatFilename)
	if p.Report == "" {
		p.Report = fmt.Sprintf(constants.ReportFilePattern, day)
	}
	if p.Final == "" {
		p.Final = fmt.Sprintf(constants.FinalFilePattern, day)
	}
	return p
}

// Outcome describes a finished reconciliation or finalization.
type Outcome struct {
	RunID uuid.UUID // uuid.Nil for Finalize
	Paths Paths
	Rows  []catalogs.Row
	Items []catalogs.Item
	Stats reconciler.Stats
	Merge reconciler.MergeStats
}

// Reconcile runs a full reconciliation of paths.Catalog against fetcher.
// On success the delta report and the final sheet are written and the
// checkpoint is deleted. On failure the checkpoint from the last committed
// batch is left for the next invocation.
func Reconcile(ctx context.Context, fetcher reconciler.Fetcher, paths Paths, opts ...Option) (*Outcome, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	paths = paths.WithDefaults(o.now())
	ctx = o.context(ctx)
	logger := logging.FromContext(ctx)

	catalog, err := tabular.ReadCatalog(paths.Catalog)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("catalog", paths.Catalog).
		Int("items", len(catalog.Items)).
		Msg("Catalog loaded")

	proc, err := reconciler.New(fetcher, o.processorOptions()...)
	if err != nil {
		return nil, err
	}
	result, err := proc.Run(ctx, catalog.Items)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, result.RunID.String())

	if err := tabular.WriteReport(paths.Report, result.Rows); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().Str("report", paths.Report).Msg("Delta report written")

	outcome, err := o.finish(ctx, catalog, result.Rows, paths)
	if err != nil {
		return nil, err
	}
	outcome.RunID = result.RunID
	outcome.Stats = result.Stats

	// The run is complete only once both files exist.
	if err := o.store.Delete(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().Stringer("stats", outcome.Stats).Msg("Run finished")

	return outcome, nil
}

// Finalize merges an existing delta report into the catalog without
// contacting the API. Each row's status is re-derived from its stock
// listing and rows are normalized before merging.
func Finalize(ctx context.Context, paths Paths, opts ...Option) (*Outcome, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	paths = paths.WithDefaults(o.now())
	ctx = o.context(ctx)
	logger := logging.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}

	rows, err := tabular.ReadReport(paths.Report)
	if err != nil {
		return nil, err
	}
	catalog, err := tabular.ReadCatalog(paths.Catalog)
	if err != nil {
		return nil, err
	}

	rows = reconciler.Reclassify(rows, o.classifier)
	rows, normalized := reconciler.Normalize(rows, o.tiers.Sentinel())
	logger.Info().
		Str("report", paths.Report).
		Int("rows", len(rows)).
		Int("normalized", normalized).
		Msg("Delta report loaded")

	outcome, err := o.finish(ctx, catalog, rows, paths)
	if err != nil {
		return nil, err
	}
	outcome.Stats = reconciler.Stats{Total: len(rows), Normalized: normalized}
	outcome.Stats.CountRows(rows)

	return outcome, nil
}

// finish merges rows into the catalog, writes the final sheet and fires hooks.
func (o *options) finish(ctx context.Context, catalog *tabular.Catalog, rows []catalogs.Row, paths Paths) (*Outcome, error) {
	merged, stats := reconciler.Merge(catalog.Items, rows)
	if err := catalog.WithItems(merged).Write(paths.Final); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().
		Str("final", paths.Final).
		Int("updated", stats.Updated).
		Int("unmatched", stats.Unmatched).
		Int("skipped", stats.Skipped).
		Msg("Final price sheet written")

	o.hooks.trigger(catalog.Items, merged, rows)

	return &Outcome{
		Paths: paths,
		Rows:  rows,
		Items: merged,
		Merge: stats,
	}, nil
}
