package pricemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/internal/tabular"
	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

const catalogCSV = `Артикул,Бренд,Цена,Статус,Примечание
A1,Bosch,1000,В наличии,first
A2,Mann,500,Под заказ 14-21 дней,second
A3,NGK,300,В наличии,third
`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func writeCatalog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o644))
	return path
}

func testPaths(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		Catalog: writeCatalog(t, dir),
		Report:  filepath.Join(dir, "report.csv"),
		Final:   filepath.Join(dir, "final.csv"),
	}
}

func testFetcher() *reconciler.StaticFetcher {
	return reconciler.NewStaticFetcher(map[string]catalogs.Quote{
		"A1": {WholesalePrice: dec("1050"), Stocks: catalogs.Stocks{{WarehouseID: "1", Name: "Н(Т)", Quantity: 4}}},
		"A2": {WholesalePrice: dec("400"), Stocks: catalogs.Stocks{{WarehouseID: "2", Name: "Красноярск (Одесская)", Quantity: 2}}},
	}, "1", "2")
}

func TestReconcile(t *testing.T) {
	paths := testPaths(t)
	store := checkpoint.NewMemoryStore(nil)

	var updated []catalogs.Key
	var failed []catalogs.Key
	var progress []reconciler.Progress

	outcome, err := Reconcile(context.Background(), testFetcher(), paths,
		WithStore(store),
		WithBatchSize(2),
		WithLogger(logging.NewNopLogger()),
		WithProgress(func(p reconciler.Progress) { progress = append(progress, p) }),
		OnItemUpdated(func(old, _ catalogs.Item) { updated = append(updated, old.Key()) }),
		OnRowFailed(func(row catalogs.Row) { failed = append(failed, row.Key()) }),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Stats.Total)
	assert.Equal(t, 2, outcome.Stats.Batches)
	assert.Equal(t, 2, outcome.Stats.Changed)
	assert.Equal(t, 1, outcome.Stats.Errors)
	assert.Equal(t, reconciler.MergeStats{Updated: 3}, outcome.Merge)
	assert.Len(t, progress, 2)
	assert.Len(t, updated, 3)
	assert.Equal(t, []catalogs.Key{{Article: "A3", Brand: "NGK"}}, failed)

	// Report round trip.
	rows, err := tabular.ReadReport(paths.Report)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1350", rows[0].NewPrice.Decimal.String())
	assert.Equal(t, catalogs.ChangeError, rows[2].Change)

	// Final sheet keeps the extra column and carries the new values.
	final, err := tabular.ReadCatalog(paths.Final)
	require.NoError(t, err)
	require.Len(t, final.Items, 3)
	assert.True(t, final.Items[0].Price.Equal(dec("1350")))
	assert.Equal(t, catalogs.StatusInStock, final.Items[0].Status)
	assert.Equal(t, catalogs.StatusReady2to5, final.Items[1].Status)
	assert.True(t, final.Items[2].Price.Equal(dec("300")))
	assert.Equal(t, catalogs.StatusUnavailable, final.Items[2].Status)

	raw, err := os.ReadFile(paths.Final)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Примечание")
	assert.Contains(t, string(raw), "second")

	// A completed run leaves no checkpoint behind.
	cp, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestReconcileResumesAfterFailure(t *testing.T) {
	paths := testPaths(t)
	store := checkpoint.NewMemoryStore(nil)
	fetcher := testFetcher()
	fetcher.Fail = func(call int, _ []catalogs.Key) error {
		if call == 2 {
			return errors.New("disk on fire")
		}
		return nil
	}

	_, err := Reconcile(context.Background(), fetcher, paths,
		WithStore(store), WithBatchSize(1), WithLogger(logging.NewNopLogger()))
	require.Error(t, err)
	assert.NoFileExists(t, paths.Report)
	assert.NoFileExists(t, paths.Final)

	cp, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 1, cp.LastBatchIndex)

	fetcher.Fail = nil
	outcome, err := Reconcile(context.Background(), fetcher, paths,
		WithStore(store), WithBatchSize(1), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, cp.RunID, outcome.RunID)
	assert.Equal(t, 1, outcome.Stats.Resumed)
	assert.FileExists(t, paths.Final)
}

func TestReconcileMissingCatalog(t *testing.T) {
	dir := t.TempDir()
	_, err := Reconcile(context.Background(), testFetcher(), Paths{
		Catalog: filepath.Join(dir, "missing.csv"),
		Report:  filepath.Join(dir, "report.csv"),
		Final:   filepath.Join(dir, "final.csv"),
	}, WithStore(checkpoint.NewMemoryStore(nil)), WithLogger(logging.NewNopLogger()))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "report.csv"))
}

func TestFinalize(t *testing.T) {
	paths := testPaths(t)
	rows := []catalogs.Row{
		{
			// Listing in a primary warehouse overrides the stale status column.
			Article: "A1", Brand: "Bosch",
			OldPrice: dec("1000"), NewPrice: decimal.NewNullDecimal(dec("1350")),
			OldStatus: catalogs.StatusInStock, NewStatus: catalogs.StatusReady14to21,
			PriceChange:  decimal.NewNullDecimal(dec("35")),
			StockListing: "Н(Т) (4)",
			Change:       catalogs.ChangeYes,
		},
		{
			// The retail price of a zero wholesale price is normalized away.
			Article: "A2", Brand: "Mann",
			OldPrice: dec("500"), NewPrice: decimal.NewNullDecimal(dec("25")),
			OldStatus: catalogs.StatusReady14to21, NewStatus: catalogs.StatusInStock,
			PriceChange:  decimal.NewNullDecimal(dec("-95")),
			StockListing: catalogs.NotApplicable,
			Change:       catalogs.ChangeYes,
		},
	}
	require.NoError(t, tabular.WriteReport(paths.Report, rows))

	outcome, err := Finalize(context.Background(), paths, WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Stats.Normalized)
	assert.Equal(t, reconciler.MergeStats{Updated: 2, Unmatched: 1}, outcome.Merge)

	final, err := tabular.ReadCatalog(paths.Final)
	require.NoError(t, err)
	require.Len(t, final.Items, 3)
	assert.Equal(t, catalogs.StatusInStock, final.Items[0].Status)
	assert.True(t, final.Items[1].Price.Equal(dec("500")))
	assert.Equal(t, catalogs.StatusUnavailable, final.Items[1].Status)
	// Items without a report row are copied unchanged.
	assert.True(t, final.Items[2].Price.Equal(dec("300")))
	assert.Equal(t, catalogs.StatusInStock, final.Items[2].Status)
}

func TestFinalizeMissingReport(t *testing.T) {
	paths := testPaths(t)
	_, err := Finalize(context.Background(), paths, WithLogger(logging.NewNopLogger()))
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestFinalizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Finalize(ctx, testPaths(t), WithLogger(logging.NewNopLogger()))
	assert.True(t, errors.IsCanceled(err))
}

func TestPathsWithDefaults(t *testing.T) {
	day := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	p := Paths{}.WithDefaults(day)
	assert.Equal(t, "output.xlsx", p.Catalog)
	assert.Equal(t, "changes_report_20261019.xlsx", p.Report)
	assert.Equal(t, "price_20261019.xlsx", p.Final)

	p = Paths{Catalog: "c.csv", Report: "r.csv", Final: "f.csv"}.WithDefaults(day)
	assert.Equal(t, Paths{Catalog: "c.csv", Report: "r.csv", Final: "f.csv"}, p)
}

func TestOptions(t *testing.T) {
	_, err := newOptions(WithBatchSize(61))
	assert.True(t, errors.IsValidationError(err))
	_, err = newOptions(WithStore(nil))
	assert.Error(t, err)
	_, err = newOptions(WithClock(nil))
	assert.Error(t, err)
	_, err = newOptions(WithTiers(pricing.Tiers{Bands: []pricing.Tier{
		{Bound: decimal.NewFromInt(500), Markup: 100},
		{Bound: decimal.NewFromInt(100), Markup: 25},
	}}))
	assert.True(t, errors.IsValidationError(err))

	o, err := newOptions(WithBatchSize(10))
	require.NoError(t, err)
	assert.Len(t, o.processorOptions(), 5)
}
