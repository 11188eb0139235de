package reconciler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/pricemap/pkg/catalogs"
)

// Result is the outcome of a completed run.
type Result struct {
	RunID uuid.UUID
	Rows  []catalogs.Row
	Stats Stats
}

// Stats summarizes a run.
type Stats struct {
	Total         int           `json:"total"`          // catalog rows
	Resumed       int           `json:"resumed"`        // rows taken from a checkpoint
	Batches       int           `json:"batches"`        // batches processed by this invocation
	FailedBatches int           `json:"failed_batches"` // batches that degraded to error rows
	Missing       int           `json:"missing"`        // items the API returned no data for
	Errors        int           `json:"errors"`         // rows marked as errors
	Changed       int           `json:"changed"`        // rows flagged as changed
	Normalized    int           `json:"normalized"`     // rows rewritten by Normalize
	Duration      time.Duration `json:"duration"`       // wall time of this invocation
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("%d rows (%d resumed), %d batches (%d failed), %d changed, %d errors, %d normalized",
		s.Total, s.Resumed, s.Batches, s.FailedBatches, s.Changed, s.Errors, s.Normalized)
}

// Progress is reported after every committed batch.
type Progress struct {
	Batch     int  // 1-based batch number within the catalog
	Batches   int  // total batches in the catalog
	Processed int  // catalog rows with a result
	Total     int  // catalog rows
	Failed    bool // the batch degraded to error rows
}

// Percent returns the processed share of the catalog.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// String formats progress as "processed/total (pct%)".
func (p Progress) String() string {
	return fmt.Sprintf("%d/%d (%.2f%%)", p.Processed, p.Total, p.Percent())
}

// CountRows sets Errors and Changed from the change markers of rows.
func (s *Stats) CountRows(rows []catalogs.Row) {
	s.Errors, s.Changed = 0, 0
	for _, row := range rows {
		switch row.Change {
		case catalogs.ChangeError:
			s.Errors++
		case catalogs.ChangeYes:
			s.Changed++
		}
	}
}
