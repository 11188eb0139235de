// Package application provides test doubles for the command application interface.
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	app "github.com/agentstation/pricemap/cmd/application"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/pricing"
)

var _ app.Application = (*Mock)(nil)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    FetcherFunc: func() (app.Fetcher, error) {
//	        return fakeFetcher, nil
//	    },
//	}
//	cmd := run.NewCommand(mock)
type Mock struct {
	FetcherFunc         func() (app.Fetcher, error)
	CheckpointStoreFunc func(ctx context.Context) (checkpoint.Store, error)
	OptionsFunc         func() ([]pricemap.Option, error)
	PathsFunc           func() pricemap.Paths
	TiersFunc           func() pricing.Tiers
	LoggerFunc          func() *zerolog.Logger
	OutputFormatFunc    func() string
	VersionFunc         func() string

	store *checkpoint.MemoryStore
}

// Fetcher returns a fetcher using the mock function or nil.
func (m *Mock) Fetcher() (app.Fetcher, error) {
	if m.FetcherFunc != nil {
		return m.FetcherFunc()
	}
	return nil, nil
}

// CheckpointStore returns a store using the mock function or a memory store
// shared across calls.
func (m *Mock) CheckpointStore(ctx context.Context) (checkpoint.Store, error) {
	if m.CheckpointStoreFunc != nil {
		return m.CheckpointStoreFunc(ctx)
	}
	if m.store == nil {
		m.store = checkpoint.NewMemoryStore(nil)
	}
	return m.store, nil
}

// Options returns run options using the mock function or none.
func (m *Mock) Options() ([]pricemap.Option, error) {
	if m.OptionsFunc != nil {
		return m.OptionsFunc()
	}
	return []pricemap.Option{pricemap.WithLogger(m.Logger())}, nil
}

// Paths returns paths using the mock function or zero paths.
func (m *Mock) Paths() pricemap.Paths {
	if m.PathsFunc != nil {
		return m.PathsFunc()
	}
	return pricemap.Paths{}
}

// Tiers returns tiers using the mock function or the default ladder.
func (m *Mock) Tiers() pricing.Tiers {
	if m.TiersFunc != nil {
		return m.TiersFunc()
	}
	return pricing.DefaultTiers()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}
