// Package constants provides shared constants used throughout the pricemap codebase.
// This includes batch limits, retry budgets, timeouts, file permissions, and the
// default locations of the files a reconciliation run reads and writes.
package constants

import "time"

// Batch and retry constants define how the catalog is partitioned and how
// failed remote calls are retried.
const (
	// MaxBatchSize is the largest number of articles the pricing API accepts in one request
	MaxBatchSize = 60

	// DefaultBatchSize is the number of catalog rows submitted per request
	DefaultBatchSize = MaxBatchSize

	// DefaultRetryCount is the number of attempts made for one request before giving up
	DefaultRetryCount = 5

	// DefaultRetryDelay is the fixed pause between two attempts of the same request
	DefaultRetryDelay = 10 * time.Second
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the pricing API
	DefaultHTTPTimeout = 30 * time.Second

	// ShutdownTimeout bounds cleanup when the CLI exits
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default endpoint and file locations.
const (
	// DefaultAPIURL is the JSON endpoint of the pricing API
	DefaultAPIURL = "https://api2.autotrade.su/?json"

	// UserAgent is sent with every API request
	UserAgent = "pricemap/1.0"

	// DefaultCheckpointFile is where progress is persisted between batches
	DefaultCheckpointFile = "checkpoint.json"

	// DefaultCheckpointName identifies the checkpoint row when a database store is used
	DefaultCheckpointName = "default"

	// DefaultCatalogFile is the price list read at the start of a run
	DefaultCatalogFile = "output.xlsx"

	// ReportFilePattern names the delta report; the verb receives a TimeFormatFilename date
	ReportFilePattern = "changes_report_%s.xlsx"

	// FinalFilePattern names the merged price list; the verb receives a TimeFormatFilename date
	FinalFilePattern = "price_%s.xlsx"

	// TimeFormatFilename is the date layout used in generated filenames
	TimeFormatFilename = "20060102"
)
