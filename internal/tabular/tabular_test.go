package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/errors"
)

var cmpDecimal = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCatalogCSV(t *testing.T) {
	path := writeFile(t, "price.csv", "\ufeffАртикул,Бренд,Цена,Статус,Комментарий\n"+
		"0986452041,Bosch,1 250 руб.,В наличии,keep me\n"+
		",,,,\n"+
		"W712,Mann,480.5,Под заказ 2-5 дней\n")

	c, err := ReadCatalog(path)
	require.NoError(t, err)

	want := []catalogs.Item{
		{Article: "0986452041", Brand: "Bosch", Price: decimal.NewFromInt(1250), Status: catalogs.StatusInStock},
		{Article: "W712", Brand: "Mann", Price: decimal.RequireFromString("480.5"), Status: catalogs.StatusReady2to5},
	}
	if diff := cmp.Diff(want, c.Items, cmpDecimal); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCatalogEnglishHeaders(t *testing.T) {
	path := writeFile(t, "price.csv", "Status,PRICE,brand,Article\nВ наличии,10,B,A\n")

	c, err := ReadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, catalogs.Key{Article: "A", Brand: "B"}, c.Items[0].Key())
	assert.True(t, decimal.NewFromInt(10).Equal(c.Items[0].Price))
}

func TestReadCatalogMissingColumns(t *testing.T) {
	path := writeFile(t, "price.csv", "Артикул,Цена\nA,1\n")

	_, err := ReadCatalog(path)
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
	assert.Contains(t, err.Error(), "Бренд, Статус")
}

func TestReadCatalogMissingFile(t *testing.T) {
	_, err := ReadCatalog(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.True(t, errors.IsPrecondition(err))

	_, err = ReadCatalog(filepath.Join(t.TempDir(), "price.ods"))
	assert.True(t, errors.IsValidationError(err))
}

func TestCatalogWriteKeepsExtraColumns(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			src := writeFile(t, "in.csv", "Артикул,Бренд,Цена,Статус,Комментарий\nA,B,100,В наличии,note\nC,D,200,В наличии\n")
			c, err := ReadCatalog(src)
			require.NoError(t, err)

			items := append([]catalogs.Item(nil), c.Items...)
			items[0].Price = decimal.RequireFromString("135.5")
			items[1].Status = catalogs.StatusReady14to21

			out := filepath.Join(t.TempDir(), "out"+ext)
			require.NoError(t, c.WithItems(items).Write(out))

			table, err := Read(out)
			require.NoError(t, err)
			assert.Equal(t, []string{"Артикул", "Бренд", "Цена", "Статус", "Комментарий"}, table.Header)
			assert.Equal(t, "135.5", table.Rows[0][2])
			assert.Equal(t, "note", table.Rows[0][4])
			assert.Equal(t, string(catalogs.StatusReady14to21), table.Rows[1][3])

			back, err := ReadCatalog(out)
			require.NoError(t, err)
			if diff := cmp.Diff(items, back.Items, cmpDecimal); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewCatalog(t *testing.T) {
	items := []catalogs.Item{{Article: "A", Brand: "B", Price: decimal.NewFromInt(7), Status: catalogs.StatusInStock}}
	path := filepath.Join(t.TempDir(), "price.xlsx")
	require.NoError(t, NewCatalog(items).Write(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	typ, err := f.GetCellType(f.GetSheetName(0), "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "prices are stored as numbers")

	back, err := ReadCatalog(path)
	require.NoError(t, err)
	if diff := cmp.Diff(items, back.Items, cmpDecimal); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReportRoundTrip(t *testing.T) {
	rows := []catalogs.Row{
		{
			Article: "A", Brand: "B",
			OldPrice: decimal.NewFromInt(1000), NewPrice: decimal.NewNullDecimal(decimal.NewFromInt(1350)),
			OldStatus: catalogs.StatusInStock, NewStatus: catalogs.StatusInStock,
			PriceChange:  decimal.NewNullDecimal(decimal.RequireFromString("-12.5")),
			StockListing: "Н(Т) (4)",
			Change:       catalogs.ChangeYes,
		},
		catalogs.ErrorRow(catalogs.Item{Article: "C", Brand: "D", Price: decimal.NewFromInt(300), Status: catalogs.StatusInStock}),
		{Article: "E", Brand: "F", OldPrice: decimal.Zero, NewStatus: catalogs.StatusReady7to14, StockListing: "", Change: catalogs.ChangeNo},
	}

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report"+ext)
			require.NoError(t, WriteReport(path, rows))

			table, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, ReportHeader, table.Header)
			assert.Equal(t, catalogs.NotApplicable, table.Rows[1][6])

			got, err := ReadReport(path)
			require.NoError(t, err)
			if diff := cmp.Diff(rows, got, cmpDecimal); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadReportMinimalColumns(t *testing.T) {
	path := writeFile(t, "changes.csv", "article,brand,new_price,new_status,stock_listing\nA,B,,В наличии,Н(Т) (1)\n")

	rows, err := ReadReport(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].NewPrice.Valid)
	assert.False(t, rows[0].PriceChange.Valid)
	assert.Equal(t, "Н(Т) (1)", rows[0].StockListing)

	_, err = ReadReport(writeFile(t, "bad.csv", "article,brand\nA,B\n"))
	assert.True(t, errors.IsPrecondition(err))
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("a/b/PRICE.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatOf("report.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatOf("report.json")
	assert.Error(t, err)
}
