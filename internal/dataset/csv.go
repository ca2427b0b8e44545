package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/ruiji/internal/models"
)

func readCSV(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return decodeCSV(f)
}

func decodeCSV(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.SchemaError("empty csv: missing %s and %s columns", ColumnContext, ColumnResponse)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	ctxIdx, respIdx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsToRecords(rows, ctxIdx, respIdx), nil
}
