// Package writers serializes canonical content into the legacy platform's
// import formats.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"

	"hal_bridge/internal/domain"
)

// WriteTabular writes a header of columns followed by one line per record,
// in input order. Columns absent from a record are written empty.
func WriteTabular(w io.Writer, columns []string, rows []domain.Record) error {
	if len(columns) == 0 {
		return fmt.Errorf("tabular: no columns")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	line := make([]string, len(columns))
	for i, r := range rows {
		for j, col := range columns {
			line[j] = r[col]
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("tabular: row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
