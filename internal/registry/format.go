package registry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hyperjump/biokgvec/internal/labels"
	"github.com/hyperjump/biokgvec/internal/storage"
	"github.com/hyperjump/biokgvec/internal/vector"
)

// Artifact formats, named by their file extension.
const (
	FormatKVec     = ".kvec"
	FormatJSON     = ".json"
	FormatJSONGzip = ".json.gz"
	FormatJSONZstd = ".json.zst"
	FormatJSONLZ4  = ".json.lz4"
	FormatSQLite   = ".sqlite"
	FormatDB       = ".db"
)

// Longer extensions first so ".json.gz" is not read as ".gz".
var formats = []string{
	FormatJSONGzip, FormatJSONZstd, FormatJSONLZ4,
	FormatKVec, FormatJSON, FormatSQLite, FormatDB,
}

// SplitName returns the composite name and format of an artifact file name.
// ok is false for unsupported extensions.
func SplitName(filename string) (name, format string, ok bool) {
	lower := strings.ToLower(filename)
	for _, f := range formats {
		if strings.HasSuffix(lower, f) && len(filename) > len(f) {
			return filename[:len(filename)-len(f)], f, true
		}
	}
	return "", "", false
}

// decoded is the outcome of decoding one file.
type decoded struct {
	entry   Entry
	skipped int
}

func decodeFile(ctx context.Context, path, name, format string) (decoded, error) {
	switch format {
	case FormatKVec:
		if labels.IsDictionaryName(name) {
			return decoded{}, fmt.Errorf("label dictionaries cannot be stored as %s", format)
		}
		t, err := vector.OpenMmap(name, path)
		if err != nil {
			return decoded{}, err
		}
		return decoded{entry: TableEntry(t)}, nil
	case FormatSQLite, FormatDB:
		return decodeSQLite(ctx, path, name)
	default:
		return decodeJSON(path, name, format)
	}
}

func decodeSQLite(ctx context.Context, path, name string) (decoded, error) {
	a, err := storage.Open(path)
	if err != nil {
		return decoded{}, err
	}
	defer a.Close()
	if labels.IsDictionaryName(name) {
		d, err := a.ReadLabels(ctx, name)
		if err != nil {
			return decoded{}, err
		}
		return decoded{entry: DictionaryEntry(d)}, nil
	}
	b, err := a.ReadVectors(ctx, name)
	if err != nil {
		return decoded{}, err
	}
	return decoded{entry: TableEntry(b.Table()), skipped: b.Skipped()}, nil
}

func decodeJSON(path, name, format string) (decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return decoded{}, err
	}
	defer f.Close()

	r, closeFn, err := decompress(f, format)
	if err != nil {
		return decoded{}, err
	}
	defer closeFn()

	br := bufio.NewReaderSize(r, 1<<20)
	if labels.IsDictionaryName(name) {
		d, err := labels.ReadJSON(name, br)
		if err != nil {
			return decoded{}, err
		}
		return decoded{entry: DictionaryEntry(d)}, nil
	}
	b, err := vector.ReadJSON(name, br)
	if err != nil {
		return decoded{}, err
	}
	return decoded{entry: TableEntry(b.Table()), skipped: b.Skipped()}, nil
}

func decompress(r io.Reader, format string) (io.Reader, func(), error) {
	switch format {
	case FormatJSONGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case FormatJSONZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	case FormatJSONLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}
