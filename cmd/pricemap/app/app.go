// Package app provides the application context and dependency management
// for the pricemap CLI: configuration, logging, the pricing API client and
// the checkpoint store, wired once and shared by every command.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/cmd/application"
	"github.com/agentstation/pricemap/internal/sources/autotrade"
	"github.com/agentstation/pricemap/pkg/availability"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
)

var _ application.Application = (*App)(nil)

// App represents the pricemap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily created, guarded by mu.
	mu       sync.Mutex
	client   *autotrade.Client
	store    checkpoint.Store
	postgres *checkpoint.PostgresStore
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and the default config
// file locations; flags are applied when a command runs.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Tiers returns the markup ladder.
func (a *App) Tiers() pricing.Tiers {
	return pricing.DefaultTiers()
}

// Paths returns the configured file paths.
func (a *App) Paths() pricemap.Paths {
	return pricemap.Paths{
		Catalog: a.config.CatalogFile,
		Report:  a.config.ReportFile,
		Final:   a.config.FinalFile,
	}
}

// Fetcher returns the pricing API client, creating it on first use.
func (a *App) Fetcher() (application.Fetcher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}
	if a.config.AuthKey == "" {
		return nil, errors.NewPreconditionError("auth_key",
			"no API key configured; set AUTOTRADE_AUTH_KEY or "+EnvPrefix+"_AUTH_KEY", nil)
	}

	client, err := autotrade.New(a.config.AuthKey,
		autotrade.WithBaseURL(a.config.APIURL),
		autotrade.WithHTTPClient(&http.Client{Timeout: a.config.HTTPTimeout}),
		autotrade.WithRetry(a.config.RetryCount, a.config.RetryDelay),
		autotrade.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// CheckpointStore returns the configured checkpoint store. A configured DSN
// selects the Postgres store; otherwise checkpoints live in a local file.
func (a *App) CheckpointStore(ctx context.Context) (checkpoint.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	if a.config.CheckpointDSN == "" {
		a.store = checkpoint.NewFileStore(a.config.CheckpointFile)
		return a.store, nil
	}

	pg, err := checkpoint.ConnectPostgres(ctx, a.config.CheckpointDSN, a.config.CheckpointName)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("checkpoint", a.config.CheckpointName).Msg("Using Postgres checkpoint store")
	a.postgres = pg
	a.store = pg
	return pg, nil
}

// Options returns run options derived from the configuration.
func (a *App) Options() ([]pricemap.Option, error) {
	opts := []pricemap.Option{
		pricemap.WithBatchSize(a.config.BatchSize),
		pricemap.WithLogger(a.logger),
	}
	if a.config.WarehousesFile != "" {
		w, err := availability.LoadWarehouses(a.config.WarehousesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pricemap.WithWarehouses(w))
	}
	return opts, nil
}

// Shutdown releases resources held by the app.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.postgres != nil {
		a.postgres.Close()
		a.postgres = nil
		a.store = nil
	}
	return nil
}

// configure applies parsed flags: an explicit config file is loaded, flag
// values override it, the result is validated and the logger rebuilt.
func (a *App) configure(flags *rootFlags) error {
	if flags.configFile != "" {
		config, err := LoadConfig(flags.configFile)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(flags.verbose, flags.quiet, flags.noColor, flags.format, flags.logLevel)
	if err := a.config.Validate(); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the checkpoint store (useful for testing).
func WithStore(store checkpoint.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}
