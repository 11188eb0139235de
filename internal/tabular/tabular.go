// Package tabular reads and writes the spreadsheets a reconciliation run
// consumes and produces: the price list (catalog) and the delta report.
// Files ending in .csv are handled with encoding/csv; .xlsx files with
// excelize. Only the first worksheet of a workbook is used.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/pricemap/pkg/errors"
)

// Format is a supported file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", &errors.ValidationError{
			Field:   "file",
			Value:   path,
			Message: "unsupported extension; use .csv or .xlsx",
		}
	}
}

// Table is a header row plus data rows of raw cell text.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read loads the table stored at path.
func Read(path string) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(path)
	case FormatXLSX:
		records, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	t := &Table{}
	if len(records) == 0 {
		return t, nil
	}
	t.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		t.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Write stores header and rows at path, replacing any existing file
// atomically. Cells may be strings, numbers, or nil.
func Write(path string, header []string, rows [][]any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return writeCSV(path, header, rows)
	default:
		return writeXLSX(path, header, rows)
	}
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cell returns row[i], or "" when the row is shorter.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var fold = cases.Fold()

// columns locates the named fields in header. aliases maps each field to the
// header spellings accepted for it. Missing fields are reported together.
func columns(subject string, header []string, fields []string, aliases map[string][]string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := fold.String(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	found := make(map[string]int, len(fields))
	var missing []string
	for _, field := range fields {
		pos := -1
		for _, alias := range aliases[field] {
			if i, ok := index[fold.String(alias)]; ok {
				pos = i
				break
			}
		}
		if pos < 0 {
			missing = append(missing, aliases[field][0])
			continue
		}
		found[field] = pos
	}
	if len(missing) > 0 {
		return nil, errors.NewPreconditionError(subject,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return found, nil
}
