package reconciler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap/pkg/availability"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// Options configures a processor.
type options struct {
	batchSize  int
	store      checkpoint.Store
	classifier *availability.Classifier
	tiers      pricing.Tiers
	progress   func(Progress)
	logger     *zerolog.Logger
	now        func() time.Time
}

func defaultOptions() *options {
	return &options{
		batchSize:  constants.DefaultBatchSize,
		store:      checkpoint.NewMemoryStore(nil),
		classifier: availability.Default(),
		tiers:      pricing.DefaultTiers(),
		now:        time.Now,
	}
}

// Option is a function that configures a Processor.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns processor options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithBatchSize sets how many catalog items go into one API request.
func WithBatchSize(size int) Option {
	return func(o *options) error {
		if size < 1 || size > constants.MaxBatchSize {
			return &errors.ValidationError{
				Field:   "batch_size",
				Value:   size,
				Message: "must be between 1 and 60",
			}
		}
		o.batchSize = size
		return nil
	}
}

// WithStore sets where checkpoints are kept.
func WithStore(store checkpoint.Store) Option {
	return func(o *options) error {
		if store == nil {
			return &errors.ValidationError{Field: "store", Message: "cannot be nil"}
		}
		o.store = store
		return nil
	}
}

// WithClassifier sets the availability classifier.
func WithClassifier(c *availability.Classifier) Option {
	return func(o *options) error {
		if c == nil {
			return &errors.ValidationError{Field: "classifier", Message: "cannot be nil"}
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
func WithProgress(fn func(Progress)) Option {
	return func(o *options) error {
		o.progress = fn
		return nil
	}
}

// WithLogger sets the logger. Without it the logger is taken from the
// context passed to Run.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithClock sets the time source used for checkpoint timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}
