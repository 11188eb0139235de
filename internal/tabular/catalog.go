package tabular

import (
	"github.com/agentstation/pricemap/pkg/catalogs"
)

// Catalog column headers.
const (
	ColArticle = "Артикул"
	ColBrand   = "Бренд"
	ColPrice   = "Цена"
	ColStatus  = "Статус"
)

const (
	fieldArticle = "article"
	fieldBrand   = "brand"
	fieldPrice   = "price"
	fieldStatus  = "status"
)

var catalogAliases = map[string][]string{
	fieldArticle: {ColArticle, "article"},
	fieldBrand:   {ColBrand, "brand"},
	fieldPrice:   {ColPrice, "price"},
	fieldStatus:  {ColStatus, "status"},
}

// Catalog is a price list together with the table it was read from, so that
// columns the reconciliation does not touch are written back unchanged.
type Catalog struct {
	Items []catalogs.Item

	table *Table
	cols  map[string]int
}

// NewCatalog returns a catalog with the four standard columns only.
func NewCatalog(items []catalogs.Item) *Catalog {
	t := &Table{Header: []string{ColArticle, ColBrand, ColPrice, ColStatus}}
	for _, item := range items {
		t.Rows = append(t.Rows, []string{item.Article, item.Brand, item.Price.String(), string(item.Status)})
	}
	return &Catalog{
		Items: append([]catalogs.Item(nil), items...),
		table: t,
		cols:  map[string]int{fieldArticle: 0, fieldBrand: 1, fieldPrice: 2, fieldStatus: 3},
	}
}

// ReadCatalog loads a price list. A file without article, brand, price, or
// status columns is a precondition failure.
func ReadCatalog(path string) (*Catalog, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	cols, err := columns("catalog", t.Header,
		[]string{fieldArticle, fieldBrand, fieldPrice, fieldStatus}, catalogAliases)
	if err != nil {
		return nil, err
	}

	c := &Catalog{table: t, cols: cols, Items: make([]catalogs.Item, len(t.Rows))}
	for i, row := range t.Rows {
		c.Items[i] = catalogs.Item{
			Article: cell(row, cols[fieldArticle]),
			Brand:   cell(row, cols[fieldBrand]),
			Price:   catalogs.ParsePrice(cell(row, cols[fieldPrice])),
			Status:  catalogs.Status(cell(row, cols[fieldStatus])),
		}
	}
	return c, nil
}

// WithItems returns a copy of c holding items, which must correspond row for
// row to c.Items. Only the price and status columns change.
func (c *Catalog) WithItems(items []catalogs.Item) *Catalog {
	return &Catalog{Items: append([]catalogs.Item(nil), items...), table: c.table, cols: c.cols}
}

// Write stores the catalog at path.
func (c *Catalog) Write(path string) error {
	rows := make([][]any, len(c.table.Rows))
	for i, src := range c.table.Rows {
		row := make([]any, max(len(src), len(c.table.Header)))
		for j := range row {
			if j < len(src) {
				row[j] = src[j]
			} else {
				row[j] = ""
			}
		}
		if i < len(c.Items) {
			row[c.cols[fieldPrice]] = c.Items[i].Price
			row[c.cols[fieldStatus]] = string(c.Items[i].Status)
		}
		rows[i] = row
	}
	return Write(path, c.table.Header, rows)
}
