package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/internal/atomicfile"
	"github.com/agentstation/pricemap/pkg/errors"
)

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, errors.WrapPrecondition("file", "cannot open "+path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapPrecondition("file", "cannot read "+path, errors.WrapParse("csv", path, err))
	}
	return records, nil
}

func writeCSV(path string, header []string, rows [][]any) error {
	return atomicfile.WriteFile(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(header); err != nil {
			return err
		}
		record := make([]string, 0, len(header))
		for _, row := range rows {
			record = record[:0]
			for _, v := range row {
				record = append(record, formatCell(v))
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.String()
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return fmt.Sprint(v)
	}
}
