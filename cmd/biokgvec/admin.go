package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hyperjump/biokgvec/internal/cli"
	"github.com/hyperjump/biokgvec/internal/models"
	"github.com/hyperjump/biokgvec/internal/registry"
	"github.com/hyperjump/biokgvec/internal/storage"
	"github.com/hyperjump/biokgvec/internal/vector"
)

type loadErrorInfo struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	SnapshotID      string             `json:"snapshot_id"`
	LoadedAt        time.Time          `json:"loaded_at"`
	ModelsDirectory string             `json:"models_directory"`
	Entries         []models.ModelInfo `json:"entries"`
	LoadErrors      []loadErrorInfo    `json:"load_errors"`
	DiskUsage       *storage.Usage     `json:"disk_usage,omitempty"`
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	var s statusResponse
	if err := doJSON(http.MethodGet, strings.TrimRight(serverURL, "/")+"/api/v1/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func writeStatus(w io.Writer, status *statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	var tables, dicts int
	for _, e := range status.Entries {
		if e.Kind == string(registry.KindTable) {
			tables++
		} else {
			dicts++
		}
	}
	fmt.Fprintf(w, "snapshot_id:        %s\n", status.SnapshotID)
	fmt.Fprintf(w, "loaded_at:          %s\n", status.LoadedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "models_directory:   %s\n", status.ModelsDirectory)
	fmt.Fprintf(w, "vector_tables:      %d\n", tables)
	fmt.Fprintf(w, "label_dictionaries: %d\n", dicts)
	if status.DiskUsage != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # %d files\n", status.DiskUsage.Bytes, status.DiskUsage.Files)
	}
	if len(status.LoadErrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# load errors")
		for _, le := range status.LoadErrors {
			fmt.Fprintf(w, "%s: %s\n", le.File, le.Error)
		}
	}
	return nil
}

func runStatus() {
	qf := newQueryFlags("status")
	_ = qf.fs.Parse(os.Args[2:])
	format := qf.format()

	var status *statusResponse
	if *qf.serverURL != "" {
		res, err := statusViaHTTP(*qf.serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		svc, _, done := directService(*qf.configPath)
		defer done()
		reg := svc.Registry()
		status = &statusResponse{
			SnapshotID:      reg.ID(),
			LoadedAt:        reg.LoadedAt(),
			ModelsDirectory: reg.Dir(),
			Entries:         svc.Models(),
			LoadErrors:      []loadErrorInfo{},
		}
		for _, le := range reg.LoadErrors() {
			status.LoadErrors = append(status.LoadErrors, loadErrorInfo{File: le.File, Error: le.Err.Error()})
		}
		if usage, err := storage.DiskUsage(reg.Dir()); err == nil {
			status.DiskUsage = &usage
		}
	}
	if err := writeStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// convertArtifact re-encodes the artifact at in into the format named by out's extension.
// Vector tables convert to .kvec or SQLite; label dictionaries only to SQLite.
func convertArtifact(ctx context.Context, in, out string) (registry.Entry, int, error) {
	_, outFormat, ok := registry.SplitName(out)
	if !ok {
		return registry.Entry{}, 0, fmt.Errorf("unsupported output format: %s", out)
	}
	entry, skipped, err := registry.LoadFile(ctx, in)
	if err != nil {
		return registry.Entry{}, 0, err
	}
	if c, ok := entry.Table.(io.Closer); ok {
		defer c.Close()
	}

	switch outFormat {
	case registry.FormatKVec:
		if entry.Table == nil {
			return entry, skipped, fmt.Errorf("%s is a label dictionary; .kvec holds vector tables only", in)
		}
		return entry, skipped, vector.WriteKVecFile(out, entry.Table)
	case registry.FormatSQLite, registry.FormatDB:
		a, err := storage.Create(out)
		if err != nil {
			return entry, skipped, err
		}
		defer a.Close()
		if entry.Table != nil {
			return entry, skipped, a.WriteVectors(ctx, entry.Table)
		}
		return entry, skipped, a.WriteLabels(ctx, entry.Labels)
	default:
		return entry, skipped, fmt.Errorf("cannot write %s artifacts; use .kvec, .sqlite or .db", outFormat)
	}
}

func runConvert() {
	args := os.Args[2:]
	if len(args) != 2 {
		fmt.Println("Usage: biokgvec convert <input> <output>")
		fmt.Println("  input:  .json, .json.gz, .json.zst, .json.lz4, .kvec, .sqlite or .db")
		fmt.Println("  output: .kvec (vector tables), .sqlite or .db")
		os.Exit(1)
	}
	entry, skipped, err := convertArtifact(context.Background(), args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Convert failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Converted %s (%s, %d entries", entry.Name, entry.Kind, entry.Size())
	if skipped > 0 {
		fmt.Printf(", %d malformed keys skipped", skipped)
	}
	fmt.Printf(") -> %s\n", args[1])
}
