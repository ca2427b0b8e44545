// Package models defines core data structures for example records, queries, and search results.
package models

import (
	"fmt"
	"strings"
)

// Record is a stored (context, response) example. Records are immutable once stored;
// ID is assigned by the backend at insertion time.
type Record struct {
	ID       string `json:"id,omitempty"`
	Context  string `json:"Context"`
	Response string `json:"Response"`
}

// Validate reports a schema error when either text field is absent or blank.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Context) == "" {
		return SchemaError("missing Context")
	}
	if strings.TrimSpace(r.Response) == "" {
		return SchemaError("missing Response")
	}
	return nil
}

// ValidateRecords checks every record and returns the first schema error, naming its position.
func ValidateRecords(records []Record) error {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// Contexts returns the Context field of each record in order.
func Contexts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Context
	}
	return out
}
