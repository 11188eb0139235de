package pricemap

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap/pkg/availability"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

// Option configures Reconcile and Finalize.
type Option func(*options) error

type options struct {
	batchSize  int
	store      checkpoint.Store
	classifier *availability.Classifier
	tiers      pricing.Tiers
	progress   func(reconciler.Progress)
	logger     *zerolog.Logger
	now        func() time.Time
	hooks      hooks
}

func defaultOptions() *options {
	return &options{
		batchSize:  constants.DefaultBatchSize,
		store:      checkpoint.NewFileStore(constants.DefaultCheckpointFile),
		classifier: availability.Default(),
		tiers:      pricing.DefaultTiers(),
		now:        time.Now,
	}
}

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// processorOptions translates o into options for the batch processor.
func (o *options) processorOptions() []reconciler.Option {
	opts := []reconciler.Option{
		reconciler.WithBatchSize(o.batchSize),
		reconciler.WithStore(o.store),
		reconciler.WithClassifier(o.classifier),
		reconciler.WithTiers(o.tiers),
		reconciler.WithClock(o.now),
	}
	if o.progress != nil {
		opts = append(opts, reconciler.WithProgress(o.progress))
	}
	return opts
}

// context attaches the configured logger to ctx.
func (o *options) context(ctx context.Context) context.Context {
	if o.logger != nil {
		return logging.WithLogger(ctx, o.logger)
	}
	return ctx
}

// WithBatchSize sets how many items go into one API request (1..60).
func WithBatchSize(size int) Option {
	return func(o *options) error {
		if size < 1 || size > constants.MaxBatchSize {
			return errors.NewValidationError("batch_size", size, "must be between 1 and 60")
		}
		o.batchSize = size
		return nil
	}
}

// WithStore sets the checkpoint store. The default is a file store at
// constants.DefaultCheckpointFile in the working directory.
func WithStore(store checkpoint.Store) Option {
	return func(o *options) error {
		if store == nil {
			return errors.NewValidationError("store", nil, "cannot be nil")
		}
		o.store = store
		return nil
	}
}

// WithWarehouses classifies availability with a custom warehouse table.
func WithWarehouses(w availability.Warehouses) Option {
	return func(o *options) error {
		c, err := availability.NewClassifier(w)
		if err != nil {
			return err
		}
		o.classifier = c
		return nil
	}
}

// WithTiers sets the markup ladder.
func WithTiers(tiers pricing.Tiers) Option {
	return func(o *options) error {
		if err := tiers.Validate(); err != nil {
			return err
		}
		o.tiers = tiers
		return nil
	}
}

// WithProgress registers a callback invoked after every committed batch.
func WithProgress(fn func(reconciler.Progress)) Option {
	return func(o *options) error {
		o.progress = fn
		return nil
	}
}

// WithLogger sets the logger; otherwise it comes from the context.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithClock sets the time source for checkpoints and dated file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		o.now = now
		return nil
	}
}

// OnItemUpdated registers a hook called for every catalog item whose price
// or status changed in the final sheet.
func OnItemUpdated(fn ItemUpdatedHook) Option {
	return func(o *options) error {
		o.hooks.onItemUpdated = append(o.hooks.onItemUpdated, fn)
		return nil
	}
}

// OnRowFailed registers a hook called for every row marked as an error.
func OnRowFailed(fn RowFailedHook) Option {
	return func(o *options) error {
		o.hooks.onRowFailed = append(o.hooks.onRowFailed, fn)
		return nil
	}
}
