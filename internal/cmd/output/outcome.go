package output

import (
	"io"

	"github.com/google/uuid"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/internal/cmd/globals"
	"github.com/agentstation/pricemap/internal/cmd/table"
	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

// Summary is the structured form of a finished run.
type Summary struct {
	RunID  string                `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Report string                `json:"report" yaml:"report"`
	Final  string                `json:"final" yaml:"final"`
	Stats  reconciler.Stats      `json:"stats" yaml:"stats"`
	Merge  reconciler.MergeStats `json:"merge" yaml:"merge"`
	Rows   []catalogs.Row        `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// RowFilter selects which rows of an outcome are printed.
type RowFilter int

const (
	// RowsNone prints the summary only.
	RowsNone RowFilter = iota
	// RowsChanged prints rows flagged as changed or failed.
	RowsChanged
	// RowsAll prints every row.
	RowsAll
)

// NewSummary builds the structured summary of outcome.
func NewSummary(outcome *pricemap.Outcome, rows RowFilter) Summary {
	s := Summary{
		Report: outcome.Paths.Report,
		Final:  outcome.Paths.Final,
		Stats:  outcome.Stats,
		Merge:  outcome.Merge,
	}
	if outcome.RunID != uuid.Nil {
		s.RunID = outcome.RunID.String()
	}
	switch rows {
	case RowsAll:
		s.Rows = outcome.Rows
	case RowsChanged:
		for _, row := range outcome.Rows {
			if row.Change != catalogs.ChangeNo {
				s.Rows = append(s.Rows, row)
			}
		}
	}
	return s
}

// Outcome writes a finished run. Tables print the selected rows followed by
// the run statistics; structured formats print the Summary.
func Outcome(w io.Writer, flags *globals.Flags, outcome *pricemap.Outcome, rows RowFilter) error {
	summary := NewSummary(outcome, rows)

	format := DetectFormat(flags.Output)
	if !format.IsTable() {
		return Render(w, flags, summary, nil)
	}

	if len(summary.Rows) > 0 {
		if err := Render(w, flags, nil, func(wide bool) table.Data {
			return table.RowsToTableData(summary.Rows, wide, false)
		}); err != nil {
			return err
		}
	}
	if err := Render(w, flags, nil, func(bool) table.Data {
		return table.StatsToTableData(summary.RunID, summary.Stats)
	}); err != nil {
		return err
	}
	return Render(w, flags, nil, func(bool) table.Data {
		return table.MergeStatsToTableData(summary.Merge)
	})
}
