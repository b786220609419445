// Package cli provides CLI output utilities for biokgvec.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hyperjump/biokgvec/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSimilarity writes a pairwise similarity result to w in the given format.
func WriteSimilarity(w io.Writer, res *models.SimilarityResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "%s\n  %s\n%s\n  %s\n\nSimilarity: %.4f\n", res.Label1, res.URL1, res.Label2, res.URL2, res.Similarity)
	return nil
}

// WriteNeighbors writes nearest neighbors to w in the given format.
func WriteNeighbors(w io.Writer, neighbors []models.Neighbor, format OutputFormat) error {
	if format == OutputJSON {
		if neighbors == nil {
			neighbors = []models.Neighbor{}
		}
		return writeJSON(w, neighbors)
	}
	if len(neighbors) == 0 {
		fmt.Fprintln(w, "No neighbors found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSIMILARITY\tCONCEPT\tURI")
	for i, n := range neighbors {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\n", i+1, n.Similarity, Truncate(n.Key, 60), n.Link)
	}
	return tw.Flush()
}

// WriteModels writes registry entries to w in the given format.
func WriteModels(w io.Writer, infos []models.ModelInfo, format OutputFormat) error {
	if format == OutputJSON {
		if infos == nil {
			infos = []models.ModelInfo{}
		}
		return writeJSON(w, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "No models loaded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSIZE\tDIM\tFORMAT")
	for _, m := range infos {
		dim := "-"
		if m.Dim > 0 {
			dim = fmt.Sprint(m.Dim)
		}
		format := m.Format
		if format == "" {
			format = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", m.Name, m.Kind, m.Size, dim, format)
	}
	return tw.Flush()
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
