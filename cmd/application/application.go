// Package application provides the application interface for pricemap commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            fetcher, err := app.Fetcher()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use fetcher
//	            return nil
//	        },
//	    }
//	}
//
// Tests pass an internal/cmd/application.Mock instead of the real app.
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/internal/sources/autotrade"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

// Fetcher is the remote side of a reconciliation.
type Fetcher interface {
	reconciler.Fetcher

	// ListStorages returns every supplier warehouse, eligible or not.
	ListStorages(ctx context.Context) ([]autotrade.Storage, error)
}

// Application provides what commands need from the app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Fetcher returns the pricing API client. It fails with a precondition
	// error when no auth key is configured.
	Fetcher() (Fetcher, error)

	// CheckpointStore returns the configured checkpoint store, opening a
	// database connection when a DSN is configured.
	CheckpointStore(ctx context.Context) (checkpoint.Store, error)

	// Options returns run options derived from configuration: batch size,
	// warehouse table, and logger.
	Options() ([]pricemap.Option, error)

	// Paths returns the configured catalog, report and final sheet paths.
	Paths() pricemap.Paths

	// Tiers returns the markup ladder in effect.
	Tiers() pricing.Tiers

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string
}
