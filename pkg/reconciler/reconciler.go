// Package reconciler reconciles a price catalog against the remote pricing
// API.
//
// A Processor walks the catalog in fixed-size batches, strictly in order. For
// every batch it asks a Fetcher for wholesale prices and stock, derives a new
// retail price and availability status per item, and saves a checkpoint
// holding every row computed so far. An interrupted run started again with
// the same catalog and store continues after the last saved batch and yields
// exactly the rows an uninterrupted run would have.
//
// A batch whose request keeps failing does not stop the run: each of its
// items gets an error row carrying the old price. Only a missing catalog or
// warehouse list, a checkpoint that does not belong to the catalog, or a
// checkpoint that cannot be saved end the run early.
//
// Merge applies the resulting rows to the catalog.
package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
)

// Fetcher is the remote pricing API as seen by the processor.
type Fetcher interface {
	// Storages returns the ids of the warehouses to query.
	Storages(ctx context.Context) ([]string, error)
	// FetchBatch returns quotes keyed by article. It fails as a whole.
	FetchBatch(ctx context.Context, keys []catalogs.Key, storages []string) (map[string]catalogs.Quote, error)
}

// State is the lifecycle position of a Processor.
type State int

// Processor states.
const (
	StateNotStarted State = iota
	StateBatchInFlight
	StateBatchCommitted
	StateDone
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateBatchInFlight:
		return "batch_in_flight"
	case StateBatchCommitted:
		return "batch_committed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Processor is the checkpointed batch processor.
type Processor struct {
	fetcher Fetcher
	opts    *options

	mu    sync.Mutex
	state State
}

// New creates a processor fetching quotes from fetcher.
func New(fetcher Fetcher, opts ...Option) (*Processor, error) {
	if fetcher == nil {
		return nil, &errors.ValidationError{Field: "fetcher", Message: "cannot be nil"}
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Processor{fetcher: fetcher, opts: o}, nil
}

// State returns the current state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Processor) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// fail moves to StateFailed and returns err.
func (p *Processor) fail(err error) error {
	p.setState(StateFailed)
	return err
}

// run holds the state of one Run call.
type run struct {
	items    []catalogs.Item
	digest   string
	runID    uuid.UUID
	rows     []catalogs.Row
	offset   int
	storages []string
	stats    Stats
	logger   *zerolog.Logger
}

// Run reconciles items, resuming from the store's checkpoint when there is
// one. The returned rows are normalized. Cancelling ctx stops the run before
// the next batch; the batch in flight is discarded and the last checkpoint
// remains.
func (p *Processor) Run(ctx context.Context, items []catalogs.Item) (*Result, error) {
	start := p.opts.now()
	p.setState(StateNotStarted)

	v := ValidateCatalog(items)
	if !v.IsValid() {
		return nil, p.fail(errors.NewPreconditionError("catalog", v.String(), v.Err()))
	}
	if v.HasWarnings() {
		log := p.logger(ctx)
		for _, w := range v.Warnings {
			log.Debug().Msg(w.String())
		}
		log.Warn().Int("warnings", len(v.Warnings)).Msg("Catalog has warnings")
	}

	r, err := p.resume(ctx, items)
	if err != nil {
		return nil, p.fail(err)
	}
	ctx = logging.WithRunID(ctx, r.runID.String())
	r.logger = p.logger(ctx)

	if r.offset < len(items) {
		if err := p.loadStorages(ctx, r); err != nil {
			return nil, err
		}
	}

	for r.offset < len(items) {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().Int("offset", r.offset).Msg("Run canceled before next batch")
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}
		if err := p.processBatch(ctx, r); err != nil {
			return nil, err
		}
	}

	rows, normalized := Normalize(r.rows, p.opts.tiers.Sentinel())
	r.stats.Normalized = normalized
	r.stats.CountRows(rows)
	r.stats.Duration = p.opts.now().Sub(start)
	p.setState(StateDone)

	r.logger.Info().
		Int("rows", len(rows)).
		Int("failed_batches", r.stats.FailedBatches).
		Int("changed", r.stats.Changed).
		Int("errors", r.stats.Errors).
		Int("normalized", normalized).
		Dur("duration", r.stats.Duration).
		Msg("Reconciliation complete")

	return &Result{RunID: r.runID, Rows: rows, Stats: r.stats}, nil
}

func (p *Processor) logger(ctx context.Context) *zerolog.Logger {
	if p.opts.logger != nil {
		l := p.opts.logger.With().Str("run_id", logging.RunID(ctx)).Logger()
		return &l
	}
	return logging.FromContext(ctx)
}

// resume loads and checks the checkpoint, or starts a fresh run.
func (p *Processor) resume(ctx context.Context, items []catalogs.Item) (*run, error) {
	r := &run{
		items:  items,
		digest: catalogs.Digest(items),
		stats:  Stats{Total: len(items)},
	}

	cp, err := p.opts.store.Load(ctx)
	if err != nil {
		return nil, errors.WrapPrecondition("checkpoint", "cannot load checkpoint", err)
	}
	if cp == nil {
		r.runID = uuid.New()
		return r, nil
	}

	if err := cp.Validate(items); err != nil {
		return nil, err
	}
	r.runID = cp.RunID
	if r.runID == uuid.Nil {
		r.runID = uuid.New()
	}
	r.rows = append(make([]catalogs.Row, 0, len(items)), cp.Results...)
	r.offset = min(cp.LastBatchIndex, len(items))
	r.stats.Resumed = len(r.rows)

	logging.FromContext(ctx).Info().
		Str("run_id", r.runID.String()).
		Int("offset", r.offset).
		Int("rows", len(r.rows)).
		Msg("Resuming from checkpoint")
	return r, nil
}

func (p *Processor) loadStorages(ctx context.Context, r *run) error {
	storages, err := p.fetcher.Storages(ctx)
	if err != nil {
		if errors.IsCanceled(err) || ctx.Err() != nil {
			return fmt.Errorf("%w: loading warehouses: %w", errors.ErrCanceled, err)
		}
		return p.fail(errors.NewPreconditionError("warehouses", "cannot load warehouse list", err))
	}
	if len(storages) == 0 {
		r.logger.Warn().Msg("No eligible warehouses; stock will be empty for every item")
	}
	r.storages = storages
	return nil
}

// processBatch fetches, computes, and commits the batch at r.offset.
func (p *Processor) processBatch(ctx context.Context, r *run) error {
	size := p.opts.batchSize
	end := min(r.offset+size, len(r.items))
	batch := r.items[r.offset:end]
	number := r.offset/size + 1
	batches := (len(r.items) + size - 1) / size

	prev := p.State()
	p.setState(StateBatchInFlight)
	r.logger.Debug().Int("batch", number).Int("from", r.offset).Int("to", end).Msg("Fetching batch")

	keys := make([]catalogs.Key, 0, len(batch))
	for _, item := range batch {
		if item.Queryable() {
			keys = append(keys, item.Key())
		}
	}
	var (
		quotes map[string]catalogs.Quote
		err    error
	)
	if len(keys) > 0 {
		quotes, err = p.fetcher.FetchBatch(ctx, keys, r.storages)
	}
	failed := false
	switch {
	case err == nil:
	case errors.IsCanceled(err) || ctx.Err() != nil:
		p.setState(prev)
		return fmt.Errorf("%w: batch %d: %w", errors.ErrCanceled, number, err)
	case errors.IsRemoteUnavailable(err):
		r.logger.Error().Err(err).Int("batch", number).Int("from", r.offset).Int("to", end).
			Msg("Batch failed after retries; recording error rows")
		failed = true
		r.stats.FailedBatches++
	default:
		return p.fail(fmt.Errorf("batch %d: %w", number, err))
	}

	for _, item := range batch {
		if !item.Queryable() {
			r.rows = append(r.rows, catalogs.ErrorRow(item))
			continue
		}
		quote, ok := quotes[item.Article]
		if failed || !ok {
			if !failed {
				r.logger.Warn().Str("article", item.Article).Str("brand", item.Brand).Msg("No API data for item")
				r.stats.Missing++
			}
			r.rows = append(r.rows, catalogs.ErrorRow(item))
			continue
		}
		r.rows = append(r.rows, p.computeRow(item, quote))
	}

	cp := &checkpoint.Checkpoint{
		LastBatchIndex: r.offset + size,
		Results:        r.rows,
		RunID:          r.runID,
		CatalogDigest:  r.digest,
		CatalogSize:    len(r.items),
		BatchSize:      size,
		UpdatedAt:      utc.New(p.opts.now()),
	}
	if err := p.opts.store.Save(context.WithoutCancel(ctx), cp); err != nil {
		if !errors.IsPersistence(err) {
			err = errors.WrapPersistence("save", "checkpoint", err)
		}
		return p.fail(err)
	}
	r.logger.Debug().Int("last_batch_index", cp.LastBatchIndex).Msg("Checkpoint saved")

	r.offset = end
	r.stats.Batches++
	p.setState(StateBatchCommitted)

	progress := Progress{Batch: number, Batches: batches, Processed: end, Total: len(r.items), Failed: failed}
	r.logger.Info().Int("batch", number).Int("batches", batches).Msgf("Processed %s rows", progress)
	if p.opts.progress != nil {
		p.opts.progress(progress)
	}
	return nil
}

// computeRow prices and classifies one item from its quote.
func (p *Processor) computeRow(item catalogs.Item, quote catalogs.Quote) catalogs.Row {
	newPrice := p.opts.tiers.RetailPrice(quote.WholesalePrice)
	newStatus := p.opts.classifier.Classify(quote.Stocks)

	row := catalogs.Row{
		Article:      item.Article,
		Brand:        item.Brand,
		OldPrice:     item.Price,
		NewPrice:     decimal.NewNullDecimal(newPrice),
		OldStatus:    item.Status,
		NewStatus:    newStatus,
		StockListing: catalogs.NotApplicable,
		Change:       catalogs.ChangeNo,
	}
	if len(quote.Stocks) > 0 {
		row.StockListing = quote.Stocks.Listing()
	}

	changed := item.Status != newStatus
	if item.Price.IsPositive() {
		pct := newPrice.Sub(item.Price).Div(item.Price).Mul(hundred)
		row.PriceChange = decimal.NewNullDecimal(pct.Round(2))
		if pct.Abs().GreaterThanOrEqual(catalogs.ChangeThreshold) {
			changed = true
		}
	}
	if changed {
		row.Change = catalogs.ChangeYes
	}
	return row
}

var hundred = decimal.NewFromInt(100)
