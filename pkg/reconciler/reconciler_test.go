package reconciler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
)

var cmpDecimal = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(article string, price string, status catalogs.Status) catalogs.Item {
	return catalogs.Item{Article: article, Brand: "Brand-" + article, Price: dec(price), Status: status}
}

func quote(wholesale string, stocks ...catalogs.StockEntry) catalogs.Quote {
	return catalogs.Quote{WholesalePrice: dec(wholesale), Stocks: stocks}
}

func stock(name string, qty int) catalogs.StockEntry {
	return catalogs.StockEntry{Name: name, Quantity: qty}
}

func newProcessor(t *testing.T, f Fetcher, opts ...Option) *Processor {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	p, err := New(f, opts...)
	require.NoError(t, err)
	return p
}

func TestRunEndToEnd(t *testing.T) {
	items := []catalogs.Item{
		item("A1", "1000", catalogs.StatusInStock),
		item("A2", "500", catalogs.StatusReady14to21),
		item("A3", "300", catalogs.StatusInStock),
	}
	fetcher := NewStaticFetcher(map[string]catalogs.Quote{
		"A1": quote("1050", stock("Н(Т)", 4), stock("К(О)", 0)),
		"A2": quote("400", stock("Красноярск (Одесская)", 2)),
	}, "1", "2")
	store := checkpoint.NewMemoryStore(nil)
	p := newProcessor(t, fetcher, WithStore(store))

	result, err := p.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())
	require.Len(t, result.Rows, 3)

	want := []catalogs.Row{
		{
			Article: "A1", Brand: "Brand-A1",
			OldPrice: dec("1000"), NewPrice: decimal.NewNullDecimal(dec("1350")),
			OldStatus: catalogs.StatusInStock, NewStatus: catalogs.StatusInStock,
			PriceChange:  decimal.NewNullDecimal(dec("35")),
			StockListing: "Н(Т) (4)",
			Change:       catalogs.ChangeYes,
		},
		{
			Article: "A2", Brand: "Brand-A2",
			OldPrice: dec("500"), NewPrice: decimal.NewNullDecimal(dec("500")),
			OldStatus: catalogs.StatusReady14to21, NewStatus: catalogs.StatusReady2to5,
			PriceChange:  decimal.NewNullDecimal(decimal.Zero),
			StockListing: "Красноярск (Одесская) (2)",
			Change:       catalogs.ChangeYes,
		},
		catalogs.ErrorRow(items[2]),
	}
	if diff := cmp.Diff(want, result.Rows, cmpDecimal); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, result.Stats.Missing)
	assert.Equal(t, 1, result.Stats.Errors)
	assert.Equal(t, 2, result.Stats.Changed)
	assert.Equal(t, 1, result.Stats.Batches)
	assert.Equal(t, 0, result.Stats.FailedBatches)

	saves := store.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, 60, saves[0].LastBatchIndex)
	assert.Len(t, saves[0].Results, 3)
	assert.Equal(t, result.RunID, saves[0].RunID)
	assert.Equal(t, catalogs.Digest(items), saves[0].CatalogDigest)

	merged, stats := Merge(items, result.Rows)
	assert.Equal(t, 3, stats.Updated)
	assert.True(t, dec("1350").Equal(merged[0].Price))
	assert.Equal(t, catalogs.StatusReady2to5, merged[1].Status)
	assert.True(t, dec("300").Equal(merged[2].Price))
	assert.Equal(t, catalogs.StatusReady14to21, merged[2].Status)
}

func TestRunChangeDetection(t *testing.T) {
	items := []catalogs.Item{
		item("SMALL", "1000", catalogs.StatusInStock),
		item("EDGE", "1000", catalogs.StatusInStock),
		item("FREE", "0", catalogs.StatusInStock),
		item("FREE2", "0", catalogs.StatusReady7to14),
	}
	fetcher := NewStaticFetcher(map[string]catalogs.Quote{
		"SMALL": quote("850", stock("Н(Т)", 1)), // 1050: +5%
		"EDGE":  quote("700", stock("Н(Т)", 1)), // 900: -10%
		"FREE":  quote("50", stock("Н(Т)", 1)),  // old price zero: N/A
		"FREE2": quote("50", stock("Н(Т)", 1)),  // status moved
	})

	result, err := newProcessor(t, fetcher).Run(context.Background(), items)
	require.NoError(t, err)

	rows := result.Rows
	assert.Equal(t, catalogs.ChangeNo, rows[0].Change)
	assert.True(t, dec("5").Equal(rows[0].PriceChange.Decimal))
	assert.Equal(t, catalogs.ChangeYes, rows[1].Change)
	assert.False(t, rows[2].PriceChange.Valid)
	assert.Equal(t, catalogs.ChangeNo, rows[2].Change)
	assert.Equal(t, catalogs.ChangeYes, rows[3].Change)
}

func TestRunRoundsPercentChange(t *testing.T) {
	items := []catalogs.Item{item("A", "300", catalogs.StatusInStock)}
	fetcher := NewStaticFetcher(map[string]catalogs.Quote{"A": quote("226", stock("Н(Т)", 1))})

	result, err := newProcessor(t, fetcher).Run(context.Background(), items)
	require.NoError(t, err)
	// 226 + 75 = 301: +0.333...%
	assert.Equal(t, "0.33", result.Rows[0].PriceChange.Decimal.String())
}

func TestRunResumeMatchesUninterrupted(t *testing.T) {
	var items []catalogs.Item
	quotes := map[string]catalogs.Quote{}
	for i := 0; i < 7; i++ {
		article := fmt.Sprintf("ART-%d", i)
		items = append(items, item(article, fmt.Sprint(100*(i+1)), catalogs.StatusReady7to14))
		if i != 3 {
			quotes[article] = quote(fmt.Sprint(90*(i+1)), stock("Пермь (Танкистов)", i))
		}
	}

	full, err := newProcessor(t, NewStaticFetcher(quotes, "1"), WithBatchSize(2)).Run(context.Background(), items)
	require.NoError(t, err)

	store := checkpoint.NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := newProcessor(t, NewStaticFetcher(quotes, "1"), WithBatchSize(2), WithStore(store),
		WithProgress(func(p Progress) {
			if p.Batch == 2 {
				cancel()
			}
		}))
	_, err = first.Run(ctx, items)
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
	assert.Equal(t, StateBatchCommitted, first.State())

	cp, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 4, cp.LastBatchIndex)
	assert.Len(t, cp.Results, 4)

	fetcher := NewStaticFetcher(quotes, "1")
	resumed, err := newProcessor(t, fetcher, WithBatchSize(2), WithStore(store)).Run(context.Background(), items)
	require.NoError(t, err)

	if diff := cmp.Diff(full.Rows, resumed.Rows, cmpDecimal); diff != "" {
		t.Errorf("resumed rows differ (-full +resumed):\n%s", diff)
	}
	assert.Equal(t, cp.RunID, resumed.RunID)
	assert.Equal(t, 4, resumed.Stats.Resumed)
	assert.Equal(t, 2, resumed.Stats.Batches)
	require.Len(t, fetcher.Calls(), 2)
	assert.Equal(t, "ART-4", fetcher.Calls()[0][0].Article)
	assert.Equal(t, "ART-6", fetcher.Calls()[1][0].Article)
}

func TestRunFailedBatchContinues(t *testing.T) {
	var items []catalogs.Item
	quotes := map[string]catalogs.Quote{}
	for i := 0; i < 5; i++ {
		article := fmt.Sprintf("A%d", i)
		items = append(items, item(article, "1000", catalogs.StatusInStock))
		quotes[article] = quote("1000", stock("Н(Т)", 1))
	}

	fetcher := NewStaticFetcher(quotes)
	fetcher.Fail = func(call int, _ []catalogs.Key) error {
		if call == 2 {
			return &errors.RemoteUnavailableError{Method: "getStocksAndPrices", Attempts: 3, Err: errors.New("timeout")}
		}
		return nil
	}
	store := checkpoint.NewMemoryStore(nil)
	var progress []Progress
	p := newProcessor(t, fetcher, WithBatchSize(2), WithStore(store), WithProgress(func(pr Progress) {
		progress = append(progress, pr)
	}))

	result, err := p.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())
	require.Len(t, result.Rows, 5)

	for i, row := range result.Rows {
		if i == 2 || i == 3 {
			assert.True(t, row.IsError(), "row %d", i)
			assert.True(t, items[i].Price.Equal(row.NewPrice.Decimal))
			assert.Equal(t, catalogs.StatusUnavailable, row.NewStatus)
			continue
		}
		assert.False(t, row.IsError(), "row %d", i)
	}
	assert.Equal(t, 1, result.Stats.FailedBatches)
	assert.Equal(t, 0, result.Stats.Missing)
	assert.Equal(t, 2, result.Stats.Errors)

	saves := store.Saves()
	require.Len(t, saves, 3)
	assert.Equal(t, []int{2, 4, 6}, []int{saves[0].LastBatchIndex, saves[1].LastBatchIndex, saves[2].LastBatchIndex})
	require.Len(t, saves[1].Results, 4)
	assert.True(t, saves[1].Results[2].IsError())

	require.Len(t, progress, 3)
	assert.True(t, progress[1].Failed)
	assert.Equal(t, "5/5 (100.00%)", progress[2].String())
}

func TestRunBlankKeysAreProcessed(t *testing.T) {
	items := []catalogs.Item{
		item("A1", "1000", catalogs.StatusInStock),
		{Article: "A2", Brand: "", Price: dec("500"), Status: catalogs.StatusInStock},
		{Article: " ", Brand: "Mann", Price: dec("300"), Status: catalogs.StatusReady2to5},
	}
	fetcher := NewStaticFetcher(map[string]catalogs.Quote{
		"A1": quote("1050", stock("Н(Т)", 1)),
		"A2": quote("400", stock("Н(Т)", 3)),
	}, "1")
	tl := logging.NewTestLogger(t)
	p := newProcessor(t, fetcher, WithLogger(tl.Logger))

	result, err := p.Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	calls := fetcher.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []catalogs.Key{{Article: "A1", Brand: "Brand-A1"}, {Article: "A2", Brand: ""}}, calls[0])

	assert.Equal(t, catalogs.ChangeNo, result.Rows[1].Change)
	assert.True(t, dec("500").Equal(result.Rows[1].NewPrice.Decimal))
	if diff := cmp.Diff(catalogs.ErrorRow(items[2]), result.Rows[2], cmpDecimal); diff != "" {
		t.Errorf("blank article row mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, result.Stats.Missing)
	assert.Equal(t, 1, result.Stats.Errors)

	warned := tl.Find(zerolog.WarnLevel, "Catalog has warnings")
	require.Len(t, warned, 1)
	assert.EqualValues(t, 2, warned[0]["warnings"])
}

func TestRunOnlyBlankArticlesSkipsFetch(t *testing.T) {
	items := []catalogs.Item{{Article: "", Brand: "Bosch", Price: dec("100")}}
	fetcher := NewStaticFetcher(nil, "1")
	p := newProcessor(t, fetcher)

	result, err := p.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, fetcher.Calls())
	require.Len(t, result.Rows, 1)
	assert.Equal(t, catalogs.ChangeError, result.Rows[0].Change)
	assert.Equal(t, 1, result.Stats.Batches)
}

func TestStatsCountRows(t *testing.T) {
	stats := Stats{Errors: 9, Changed: 9}
	stats.CountRows([]catalogs.Row{
		{Change: catalogs.ChangeYes},
		{Change: catalogs.ChangeNo},
		{Change: catalogs.ChangeError},
		{Change: catalogs.ChangeYes},
	})
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 2, stats.Changed)
}

func TestRunOtherFetchErrorFails(t *testing.T) {
	fetcher := NewStaticFetcher(nil)
	fetcher.Fail = func(int, []catalogs.Key) error { return errors.New("bug") }
	store := checkpoint.NewMemoryStore(nil)
	p := newProcessor(t, fetcher, WithStore(store))

	_, err := p.Run(context.Background(), []catalogs.Item{item("A", "1", catalogs.StatusInStock)})
	require.Error(t, err)
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, store.Saves())
}

func TestRunStoragesFailure(t *testing.T) {
	fetcher := NewStaticFetcher(nil)
	fetcher.StoragesErr = &errors.RemoteUnavailableError{Method: "getStoragesList", Attempts: 5, Err: errors.New("down")}
	store := checkpoint.NewMemoryStore(nil)
	p := newProcessor(t, fetcher, WithStore(store))

	_, err := p.Run(context.Background(), []catalogs.Item{item("A", "1", catalogs.StatusInStock)})
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
	assert.True(t, errors.IsRemoteUnavailable(err))
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, fetcher.Calls())
	assert.Empty(t, store.Saves())
}

func TestRunRejectsForeignCheckpoint(t *testing.T) {
	items := []catalogs.Item{item("A", "1", catalogs.StatusInStock), item("B", "1", catalogs.StatusInStock)}
	other := []catalogs.Item{item("X", "1", catalogs.StatusInStock), item("Y", "1", catalogs.StatusInStock)}
	existing := &checkpoint.Checkpoint{
		LastBatchIndex: 1,
		Results:        []catalogs.Row{catalogs.ErrorRow(other[0])},
		RunID:          uuid.New(),
		CatalogDigest:  catalogs.Digest(other),
		CatalogSize:    2,
	}
	store := checkpoint.NewMemoryStore(existing)
	fetcher := NewStaticFetcher(nil)
	p := newProcessor(t, fetcher, WithStore(store))

	_, err := p.Run(context.Background(), items)
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, fetcher.Calls())

	cp, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, existing.RunID, cp.RunID, "checkpoint is left intact")
}

func TestRunCompletedCheckpoint(t *testing.T) {
	items := []catalogs.Item{item("A", "100", catalogs.StatusInStock)}
	row := catalogs.ErrorRow(items[0])
	row.NewPrice = decimal.NewNullDecimal(dec("25"))
	row.NewStatus = catalogs.StatusInStock
	row.Change = catalogs.ChangeYes
	store := checkpoint.NewMemoryStore(&checkpoint.Checkpoint{LastBatchIndex: 60, Results: []catalogs.Row{row}})

	fetcher := NewStaticFetcher(nil)
	fetcher.StoragesErr = errors.New("must not be called")
	result, err := newProcessor(t, fetcher, WithStore(store)).Run(context.Background(), items)
	require.NoError(t, err)

	assert.Empty(t, fetcher.Calls())
	assert.NotEqual(t, uuid.Nil, result.RunID)
	require.Len(t, result.Rows, 1)
	assert.True(t, dec("100").Equal(result.Rows[0].NewPrice.Decimal), "normalization applies to resumed rows")
	assert.Equal(t, catalogs.StatusUnavailable, result.Rows[0].NewStatus)
	assert.Equal(t, 1, result.Stats.Normalized)
}

func TestRunNormalizesZeroWholesale(t *testing.T) {
	items := []catalogs.Item{item("A", "480", catalogs.StatusInStock)}
	fetcher := NewStaticFetcher(map[string]catalogs.Quote{"A": quote("0", stock("Н(Т)", 3))})

	result, err := newProcessor(t, fetcher).Run(context.Background(), items)
	require.NoError(t, err)
	row := result.Rows[0]
	assert.True(t, dec("480").Equal(row.NewPrice.Decimal))
	assert.Equal(t, catalogs.StatusUnavailable, row.NewStatus)
	assert.Equal(t, 1, result.Stats.Normalized)
}

type failingStore struct {
	checkpoint.MemoryStore
}

func (s *failingStore) Save(context.Context, *checkpoint.Checkpoint) error {
	return errors.WrapPersistence("rename", "checkpoint.json", errors.New("read-only file system"))
}

func TestRunSaveFailure(t *testing.T) {
	fetcher := NewStaticFetcher(map[string]catalogs.Quote{"A": quote("10")})
	p := newProcessor(t, fetcher, WithStore(&failingStore{}))

	_, err := p.Run(context.Background(), []catalogs.Item{item("A", "1", catalogs.StatusInStock), item("B", "1", catalogs.StatusInStock)})
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))
	assert.Equal(t, StateFailed, p.State())
	assert.Len(t, fetcher.Calls(), 1)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := checkpoint.NewMemoryStore(nil)
	fetcher := NewStaticFetcher(nil)
	p := newProcessor(t, fetcher, WithStore(store))

	_, err := p.Run(ctx, []catalogs.Item{item("A", "1", catalogs.StatusInStock)})
	assert.True(t, errors.IsCanceled(err))
	assert.Empty(t, fetcher.Calls())
	assert.Empty(t, store.Saves())
}

func TestRunCanceledInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := NewStaticFetcher(nil)
	fetcher.Fail = func(int, []catalogs.Key) error {
		cancel()
		return fmt.Errorf("%w: %w", errors.ErrCanceled, context.Canceled)
	}
	store := checkpoint.NewMemoryStore(nil)
	p := newProcessor(t, fetcher, WithStore(store))

	_, err := p.Run(ctx, []catalogs.Item{item("A", "1", catalogs.StatusInStock)})
	assert.True(t, errors.IsCanceled(err))
	assert.Equal(t, StateNotStarted, p.State())
	assert.Empty(t, store.Saves(), "a canceled batch is not recorded")
}

func TestRunInvalidCatalog(t *testing.T) {
	p := newProcessor(t, NewStaticFetcher(nil))
	_, err := p.Run(context.Background(), []catalogs.Item{
		{Article: "", Brand: "B", Price: dec("1")},
		{Article: "A", Brand: "B", Price: dec("-1")},
	})
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
	assert.Contains(t, err.Error(), "row 2")
}

func TestRunEmptyCatalog(t *testing.T) {
	fetcher := NewStaticFetcher(nil)
	fetcher.StoragesErr = errors.New("must not be called")
	result, err := newProcessor(t, fetcher).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}

func TestRunUsesClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store := checkpoint.NewMemoryStore(nil)
	p := newProcessor(t, NewStaticFetcher(nil), WithStore(store), WithClock(func() time.Time { return now }))

	_, err := p.Run(context.Background(), []catalogs.Item{item("A", "1", catalogs.StatusInStock)})
	require.NoError(t, err)
	assert.True(t, now.Equal(store.Saves()[0].UpdatedAt.Time))
}

func TestOptions(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsValidationError(err))

	for _, size := range []int{0, 61} {
		_, err = New(NewStaticFetcher(nil), WithBatchSize(size))
		assert.True(t, errors.IsValidationError(err), "batch size %d", size)
	}

	_, err = New(NewStaticFetcher(nil), WithStore(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(NewStaticFetcher(nil), WithTiers(pricing.Tiers{CatchAll: 10}))
	assert.True(t, errors.IsValidationError(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", StateNotStarted.String())
	assert.Equal(t, "batch_in_flight", StateBatchInFlight.String())
	assert.Equal(t, "batch_committed", StateBatchCommitted.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
