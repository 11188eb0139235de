// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/internal/sources/autotrade"
	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/reconciler"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// maxListing caps the stock listing column in the narrow layout.
const maxListing = 48

// RowsToTableData converts reconciliation rows to table format.
// When onlyChanged is set, rows marked as unchanged are left out.
func RowsToTableData(rows []catalogs.Row, wide, onlyChanged bool) Data {
	headers := []string{"Article", "Brand", "Old Price", "New Price", "Change %", "New Status", "Change"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft, AlignCenter}
	if wide {
		headers = append(headers, "Old Status", "Stock")
		align = append(align, AlignLeft, AlignLeft)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if onlyChanged && row.Change == catalogs.ChangeNo {
			continue
		}
		cells := []string{
			row.Article,
			row.Brand,
			FormatPrice(row.OldPrice),
			FormatNullPrice(row.NewPrice),
			FormatPercent(row.PriceChange),
			orDash(row.NewStatus.String()),
			string(row.Change),
		}
		if wide {
			cells = append(cells, orDash(row.OldStatus.String()), Truncate(row.StockListing, maxListing))
		}
		out = append(out, cells)
	}

	return Data{Headers: headers, Rows: out, ColumnAlignment: align}
}

// StatsToTableData renders run statistics as a key-value table.
func StatsToTableData(runID string, stats reconciler.Stats) Data {
	return Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Run", runID},
			{"Rows", FormatNumber(int64(stats.Total))},
			{"Resumed", FormatNumber(int64(stats.Resumed))},
			{"Batches", FormatNumber(int64(stats.Batches))},
			{"Failed batches", FormatNumber(int64(stats.FailedBatches))},
			{"Missing", FormatNumber(int64(stats.Missing))},
			{"Changed", FormatNumber(int64(stats.Changed))},
			{"Errors", FormatNumber(int64(stats.Errors))},
			{"Normalized", FormatNumber(int64(stats.Normalized))},
			{"Duration", stats.Duration.Round(time.Millisecond).String()},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// MergeStatsToTableData renders merge statistics.
func MergeStatsToTableData(stats reconciler.MergeStats) Data {
	return Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Updated", FormatNumber(int64(stats.Updated))},
			{"Unmatched", FormatNumber(int64(stats.Unmatched))},
			{"Skipped", FormatNumber(int64(stats.Skipped))},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// StoragesToTableData converts supplier warehouses to table format.
func StoragesToTableData(storages []autotrade.Storage) Data {
	rows := make([][]string, 0, len(storages))
	for _, s := range storages {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			yesNo(s.ForRealization),
			yesNo(s.ForDelivery),
			yesNo(s.Eligible()),
		})
	}
	return Data{
		Headers:         []string{"ID", "Name", "Realization", "Delivery", "Eligible"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignCenter, AlignCenter, AlignCenter},
	}
}

// TiersToTableData converts the markup ladder to table format.
func TiersToTableData(tiers pricing.Tiers) Data {
	rows := make([][]string, 0, len(tiers.Bands)+1)
	lower := decimal.Zero
	for _, band := range tiers.Bands {
		rows = append(rows, []string{
			FormatPrice(lower),
			FormatPrice(band.Bound),
			FormatNumber(band.Markup),
		})
		lower = band.Bound
	}
	rows = append(rows, []string{FormatPrice(lower), "-", FormatNumber(tiers.CatchAll)})

	return Data{
		Headers:         []string{"From", "Below", "Markup"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignRight, AlignRight},
	}
}

// FormatPrice formats a price with thousands separators and at most two decimals.
func FormatPrice(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	s := FormatNumber(whole.IntPart())
	if whole.Sign() == 0 && d.Sign() < 0 {
		s = "-" + s
	}
	if frac := d.Sub(whole).Abs(); !frac.IsZero() {
		s += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	return s
}

// FormatNullPrice formats an optional price, "-" when absent.
func FormatNullPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return FormatPrice(d.Decimal)
}

// FormatPercent formats a percent change, "N/A" when absent.
func FormatPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return catalogs.NotApplicable
	}
	s := d.Decimal.StringFixed(2)
	if d.Decimal.IsPositive() {
		s = "+" + s
	}
	return s
}

// FormatNumber formats an integer with comma separators.
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var b strings.Builder
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
