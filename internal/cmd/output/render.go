package output

import (
	"io"

	"github.com/agentstation/pricemap/internal/cmd/globals"
	"github.com/agentstation/pricemap/internal/cmd/table"
)

// Render writes data in the format chosen by the global flags. For table
// formats the tabular form produced by toTable is written; structured
// formats receive data itself.
func Render(w io.Writer, flags *globals.Flags, data any, toTable func(wide bool) table.Data) error {
	format := DetectFormat(flags.Output)
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}
	if format.IsTable() && toTable != nil {
		return NewFormatter(format).Format(w, toTable(format == FormatWide))
	}
	return NewFormatter(format).Format(w, data)
}
