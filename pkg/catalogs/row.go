package catalogs

import (
	"github.com/shopspring/decimal"
)

// Change tells whether reconciling an item produced a change worth reviewing.
type Change string

// Change labels as written to the delta report.
const (
	// ChangeYes marks a price move of at least ChangeThreshold percent or a new status.
	ChangeYes Change = "Да"
	// ChangeNo marks a row reconciled without a significant difference.
	ChangeNo Change = "Нет"
	// ChangeError marks a row that could not be reconciled at all.
	ChangeError Change = "Ошибка"
)

// ChangeThreshold is the absolute percent price move flagged as a change.
var ChangeThreshold = decimal.NewFromInt(10)

// Row is the reconciliation result for one catalog item.
type Row struct {
	Article   string              `json:"article"`
	Brand     string              `json:"brand"`
	OldPrice  decimal.Decimal     `json:"old_price"`
	NewPrice  decimal.NullDecimal `json:"new_price"`
	OldStatus Status              `json:"old_status"`
	NewStatus Status              `json:"new_status"`
	// PriceChange is the percent move rounded to two places; invalid means N/A.
	PriceChange  decimal.NullDecimal `json:"price_change_pct"`
	StockListing string              `json:"stock_listing"`
	Change       Change              `json:"change"`
}

// Key returns the identity of the item the row belongs to.
func (r Row) Key() Key {
	return Key{Article: r.Article, Brand: r.Brand}
}

// IsError reports whether the row carries the no-reconciliation marker.
func (r Row) IsError() bool {
	return r.Change == ChangeError
}

// Mergeable reports whether the row has both a new price and a new status.
func (r Row) Mergeable() bool {
	return r.NewPrice.Valid && r.NewStatus != ""
}

// ErrorRow records an item that could not be reconciled: the old price is
// carried through and the status falls back to StatusUnavailable.
func ErrorRow(item Item) Row {
	return Row{
		Article:      item.Article,
		Brand:        item.Brand,
		OldPrice:     item.Price,
		NewPrice:     decimal.NewNullDecimal(item.Price),
		OldStatus:    item.Status,
		NewStatus:    StatusUnavailable,
		StockListing: NotApplicable,
		Change:       ChangeError,
	}
}
