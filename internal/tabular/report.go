package tabular

import (
	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/pkg/catalogs"
)

// Delta report column headers, in file order.
const (
	ColOldPrice     = "Старая цена"
	ColNewPrice     = "Новая цена"
	ColOldStatus    = "Старый статус"
	ColNewStatus    = "Новый статус"
	ColPriceChange  = "Изменение цены (%)"
	ColStockListing = "Склад с наличием"
	ColChange       = "Изменение"
)

// ReportHeader is the header row of a delta report.
var ReportHeader = []string{
	ColArticle, ColBrand, ColOldPrice, ColNewPrice, ColOldStatus,
	ColNewStatus, ColPriceChange, ColStockListing, ColChange,
}

const (
	fieldOldPrice     = "old_price"
	fieldNewPrice     = "new_price"
	fieldOldStatus    = "old_status"
	fieldNewStatus    = "new_status"
	fieldPriceChange  = "price_change_pct"
	fieldStockListing = "stock_listing"
	fieldChange       = "change"
)

var reportAliases = map[string][]string{
	fieldArticle:      {ColArticle, "article"},
	fieldBrand:        {ColBrand, "brand"},
	fieldOldPrice:     {ColOldPrice, fieldOldPrice},
	fieldNewPrice:     {ColNewPrice, fieldNewPrice},
	fieldOldStatus:    {ColOldStatus, fieldOldStatus},
	fieldNewStatus:    {ColNewStatus, fieldNewStatus},
	fieldPriceChange:  {ColPriceChange, fieldPriceChange},
	fieldStockListing: {ColStockListing, fieldStockListing},
	fieldChange:       {ColChange, fieldChange},
}

// WriteReport stores rows as a delta report at path.
func WriteReport(path string, rows []catalogs.Row) error {
	out := make([][]any, len(rows))
	for i, r := range rows {
		var newPrice, pct any = "", catalogs.NotApplicable
		if r.NewPrice.Valid {
			newPrice = r.NewPrice.Decimal
		}
		if r.PriceChange.Valid {
			pct = r.PriceChange.Decimal
		}
		out[i] = []any{
			r.Article, r.Brand, r.OldPrice, newPrice, string(r.OldStatus),
			string(r.NewStatus), pct, r.StockListing, string(r.Change),
		}
	}
	return Write(path, ReportHeader, out)
}

// ReadReport loads a delta report. Only the article, brand, new price, new
// status, and stock listing columns are required.
func ReadReport(path string) ([]catalogs.Row, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	cols, err := columns("report", t.Header,
		[]string{fieldArticle, fieldBrand, fieldNewPrice, fieldNewStatus, fieldStockListing}, reportAliases)
	if err != nil {
		return nil, err
	}
	opt := optionalColumns(t.Header, []string{fieldOldPrice, fieldOldStatus, fieldPriceChange, fieldChange})

	rows := make([]catalogs.Row, len(t.Rows))
	for i, rec := range t.Rows {
		rows[i] = catalogs.Row{
			Article:      cell(rec, cols[fieldArticle]),
			Brand:        cell(rec, cols[fieldBrand]),
			OldPrice:     catalogs.ParsePrice(cell(rec, opt[fieldOldPrice])),
			NewPrice:     nullPrice(cell(rec, cols[fieldNewPrice])),
			OldStatus:    catalogs.Status(cell(rec, opt[fieldOldStatus])),
			NewStatus:    catalogs.Status(cell(rec, cols[fieldNewStatus])),
			PriceChange:  nullPercent(cell(rec, opt[fieldPriceChange])),
			StockListing: cell(rec, cols[fieldStockListing]),
			Change:       catalogs.Change(cell(rec, opt[fieldChange])),
		}
	}
	return rows, nil
}

// optionalColumns locates fields that may be absent; absent ones map to -1.
func optionalColumns(header []string, fields []string) map[string]int {
	out := make(map[string]int, len(fields))
	for _, field := range fields {
		found, err := columns("report", header, []string{field}, reportAliases)
		if err != nil {
			out[field] = -1
			continue
		}
		out[field] = found[field]
	}
	return out
}

func nullPrice(s string) decimal.NullDecimal {
	if s == "" || s == catalogs.NotApplicable {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(catalogs.ParsePrice(s))
}

func nullPercent(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
