package dataset

import (
	"fmt"

	"github.com/hyperjump/ruiji/internal/models"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet; its first row is the header.
func readXLSX(path string) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.SchemaError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, models.SchemaError("sheet %q is empty: missing %s and %s columns", sheets[0], ColumnContext, ColumnResponse)
	}
	ctxIdx, respIdx, err := columnIndexes(rows[0])
	if err != nil {
		return nil, err
	}
	return rowsToRecords(rows[1:], ctxIdx, respIdx), nil
}
