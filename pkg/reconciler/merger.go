package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/pkg/availability"
	"github.com/agentstation/pricemap/pkg/catalogs"
)

// MergeStats counts what Merge did.
type MergeStats struct {
	Updated   int `json:"updated"`   // catalog rows whose price and status were replaced
	Unmatched int `json:"unmatched"` // catalog rows without a reconciliation row
	Skipped   int `json:"skipped"`   // catalog rows whose reconciliation row lacked a price or status
}

// Merge applies rows to catalog and returns one item per catalog item, in
// catalog order. An item takes the new price and status of the row with the
// same key when the row has both; otherwise it is returned unchanged. When
// several rows share a key the first one is used.
func Merge(catalog []catalogs.Item, rows []catalogs.Row) ([]catalogs.Item, MergeStats) {
	index := make(map[catalogs.Key]catalogs.Row, len(rows))
	for _, row := range Dedupe(rows) {
		index[row.Key()] = row
	}

	var stats MergeStats
	out := make([]catalogs.Item, len(catalog))
	for i, item := range catalog {
		out[i] = item
		row, ok := index[item.Key()]
		switch {
		case !ok:
			stats.Unmatched++
		case !row.Mergeable():
			stats.Skipped++
		default:
			out[i].Price = row.NewPrice.Decimal
			out[i].Status = row.NewStatus
			stats.Updated++
		}
	}
	return out, stats
}

// Dedupe drops rows whose key appeared earlier.
func Dedupe(rows []catalogs.Row) []catalogs.Row {
	seen := make(map[catalogs.Key]bool, len(rows))
	out := make([]catalogs.Row, 0, len(rows))
	for _, row := range rows {
		if seen[row.Key()] {
			continue
		}
		seen[row.Key()] = true
		out = append(out, row)
	}
	return out
}

// Normalize rewrites rows whose new price is zero or equal to sentinel, the
// retail price of a zero wholesale price: the old price is restored and the
// status becomes catalogs.StatusUnavailable. It returns a new slice and the
// number of rows rewritten.
func Normalize(rows []catalogs.Row, sentinel decimal.Decimal) ([]catalogs.Row, int) {
	out := make([]catalogs.Row, len(rows))
	n := 0
	for i, row := range rows {
		if row.NewPrice.Valid && (row.NewPrice.Decimal.IsZero() || row.NewPrice.Decimal.Equal(sentinel)) {
			if !row.NewPrice.Decimal.Equal(row.OldPrice) || row.NewStatus != catalogs.StatusUnavailable {
				n++
			}
			row.NewPrice = decimal.NewNullDecimal(row.OldPrice)
			row.NewStatus = catalogs.StatusUnavailable
		}
		out[i] = row
	}
	return out, n
}

// Reclassify recomputes every row's new status from its stock listing.
func Reclassify(rows []catalogs.Row, c *availability.Classifier) []catalogs.Row {
	out := make([]catalogs.Row, len(rows))
	for i, row := range rows {
		row.NewStatus = c.ClassifyListing(row.StockListing)
		out[i] = row
	}
	return out
}
