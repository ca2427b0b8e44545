// Package dataset reads Context/Response training pairs from tabular files.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hyperjump/ruiji/internal/models"
)

const (
	// ColumnContext is the required column holding the user's message.
	ColumnContext = "Context"
	// ColumnResponse is the required column holding the counselor's reply.
	ColumnResponse = "Response"
	// DefaultTable is the SQLite table read when none is configured.
	DefaultTable = "records"
)

// Reader reads records from tabular files. Row order is preserved.
type Reader struct {
	table string
}

// NewReader returns a reader; table names the SQLite table and defaults to DefaultTable.
func NewReader(table string) *Reader {
	if table == "" {
		table = DefaultTable
	}
	return &Reader{table: table}
}

// Read dispatches on the file extension.
func (r *Reader) Read(path string) ([]models.Record, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	case ".db", ".sqlite", ".sqlite3":
		return readSQLite(path, r.table)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (supported: .csv, .xlsx, .db, .sqlite)", ext)
	}
}

// Supported reports whether path has a readable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// columnIndexes locates the required columns in a header row.
func columnIndexes(header []string) (ctxIdx, respIdx int, err error) {
	ctxIdx, respIdx = -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, ColumnContext) && ctxIdx < 0:
			ctxIdx = i
		case strings.EqualFold(h, ColumnResponse) && respIdx < 0:
			respIdx = i
		}
	}
	if ctxIdx < 0 {
		return 0, 0, models.SchemaError("missing %s column", ColumnContext)
	}
	if respIdx < 0 {
		return 0, 0, models.SchemaError("missing %s column", ColumnResponse)
	}
	return ctxIdx, respIdx, nil
}

// rowsToRecords converts data rows, skipping rows with no content at all.
func rowsToRecords(rows [][]string, ctxIdx, respIdx int) []models.Record {
	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		out = append(out, models.Record{
			Context:  cell(row, ctxIdx),
			Response: cell(row, respIdx),
		})
	}
	return out
}
