package tabular

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/pricemap/internal/atomicfile"
	"github.com/agentstation/pricemap/pkg/errors"
)

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapPrecondition("file", "cannot open "+path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WrapPrecondition("file", "cannot read "+path, errors.WrapParse("xlsx", path, err))
	}
	return rows, nil
}

func writeXLSX(path string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return errors.WrapPersistence("write", path, err)
	}

	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if d, ok := v.(decimal.Decimal); ok {
				v = d.InexactFloat64()
			}
			cells[j] = v
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.WrapPersistence("write", path, err)
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return errors.WrapPersistence("write", path, err)
		}
	}

	return atomicfile.WriteFile(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}
