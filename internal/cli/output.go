// Package cli provides output helpers for the ruiji command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/ruiji/internal/indexer"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/pkg/utils"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// previewLen bounds how much of a context or response is printed in text mode.
const previewLen = 200

const rule = "---------------------------------------------------------"

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes retrieval hits to w.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d similar examples in %dms\n\n", len(response.SimilarExamples), response.QueryTime)
	writeExamples(w, response.SimilarExamples)
	return nil
}

// WriteAnswer writes a drafted response followed by the examples it was conditioned on.
func WriteAnswer(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%s\n\n", response.Response)
	if len(response.SimilarExamples) > 0 {
		fmt.Fprintf(w, "Based on %d similar examples:\n", len(response.SimilarExamples))
		writeExamples(w, response.SimilarExamples)
	}
	return nil
}

func writeExamples(w io.Writer, examples []models.SimilarExample) {
	for i, ex := range examples {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, ex.SimilarityScore)
		fmt.Fprintf(w, "Context:  %s\n", utils.Truncate(ex.Context, previewLen))
		fmt.Fprintf(w, "Response: %s\n", utils.Truncate(ex.Response, previewLen))
		fmt.Fprintln(w)
	}
}

// WriteLoadReport writes the outcome of a bulk load.
func WriteLoadReport(w io.Writer, report *indexer.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	if report.Path != "" {
		fmt.Fprintf(w, "Source:  %s\n", report.Path)
	}
	fmt.Fprintf(w, "Loaded:  %d/%d records\n", report.Loaded, report.Total)
	fmt.Fprintf(w, "Batches: %d", report.Batches)
	if report.FailedBatches > 0 {
		fmt.Fprintf(w, " (%d failed)", report.FailedBatches)
	}
	fmt.Fprintf(w, "\nTook:    %s\n", report.Duration)
	return nil
}

// WriteStatus writes backend status.
func WriteStatus(w io.Writer, status *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Status:     %s\n", status.Status)
	fmt.Fprintf(w, "Backend:    %s\n", status.Backend)
	fmt.Fprintf(w, "Ready:      %t\n", status.Ready)
	fmt.Fprintf(w, "Records:    %d\n", status.Size)
	if status.Dimensions > 0 {
		fmt.Fprintf(w, "Dimensions: %d\n", status.Dimensions)
	}
	return nil
}
