package dataset

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ruiji/internal/models"
)

// readSQLite reads Context and Response from table in rowid order.
func readSQLite(path, table string) ([]models.Record, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	cols, err := tableColumns(db, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, models.SchemaError("table %s does not exist", table)
	}
	ctxIdx, respIdx, err := columnIndexes(cols)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY rowid",
		quoteIdent(cols[ctxIdx]), quoteIdent(cols[respIdx]), quoteIdent(table))
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var c, r sql.NullString
		if err := rows.Scan(&c, &r); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if c.String == "" && r.String == "" {
			continue
		}
		out = append(out, models.Record{Context: c.String, Response: r.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func tableColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
