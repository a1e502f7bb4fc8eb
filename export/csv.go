package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Dosada05/competition-system/models"
)

// WriteCSV пишет заголовок и по одной строке на сданную работу.
func WriteCSV(w io.Writer, rows []models.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(formatRow(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
