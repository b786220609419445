package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/biokgvec/internal/labels"
)

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger      *zap.Logger
	parallelism int
	suggestions bool
}

// WithLogger sets the logger for load progress and failures.
func WithLogger(l *zap.Logger) Option {
	return func(ld *loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithParallelism bounds the number of files decoded at once. Values below 1 mean GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(ld *loader) { ld.parallelism = n }
}

// WithSuggestions builds a label suggestion index for every loaded dictionary.
func WithSuggestions(enabled bool) Option {
	return func(ld *loader) { ld.suggestions = enabled }
}

type job struct {
	file   string
	name   string
	format string
	result decoded
	err    error
}

// Load scans dir (non-recursively) and decodes every supported artifact. The file extension
// selects the decoder and names ending in "_Labels" are label dictionaries. A file that fails
// to decode is logged, recorded in LoadErrors and left out; it never aborts the scan. An
// unreadable directory yields an empty registry. The only error returned is ctx's.
func Load(ctx context.Context, dir string, opts ...Option) (*Registry, error) {
	ld := &loader{logger: zap.NewNop(), parallelism: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(ld)
	}
	if ld.parallelism < 1 {
		ld.parallelism = runtime.GOMAXPROCS(0)
	}
	log := ld.logger

	r := newRegistry(dir)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		log.Error("failed to read models directory", zap.String("dir", dir), zap.Error(err))
		r.loadErrors = append(r.loadErrors, &LoadError{File: dir, Err: err})
		r.seal()
		return r, nil
	}

	var jobs []*job
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name, format, ok := SplitName(de.Name())
		if !ok {
			log.Debug("skipping unsupported file", zap.String("file", de.Name()))
			continue
		}
		jobs = append(jobs, &job{file: de.Name(), name: name, format: format})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ld.parallelism)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Info("loading model", zap.String("file", j.file), zap.String("format", j.format))
			j.result, j.err = decodeFile(gctx, filepath.Join(dir, j.file), j.name, j.format)
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for _, j := range jobs {
			closeEntry(j.result.entry)
		}
		return nil, err
	}

	for _, j := range jobs {
		if j.err != nil {
			r.fail(log, j.file, j.err)
			continue
		}
		e := j.result.entry
		e.File = j.file
		e.Format = j.format
		if err := r.add(e); err != nil {
			closeEntry(e)
			r.fail(log, j.file, err)
			continue
		}
		if j.result.skipped > 0 {
			log.Warn("skipped malformed keys", zap.String("file", j.file), zap.Int("skipped", j.result.skipped))
		}
	}
	r.seal()

	if ld.suggestions {
		r.buildSuggesters(log)
	}
	log.Info("models loaded",
		zap.String("dir", dir),
		zap.Int("entries", r.Len()),
		zap.Int("tables", r.Count(KindTable)),
		zap.Int("dictionaries", r.Count(KindDictionary)),
		zap.Int("errors", len(r.loadErrors)))
	return r, nil
}

func (r *Registry) fail(log *zap.Logger, file string, err error) {
	log.Error("failed to load model", zap.String("file", file), zap.Error(err))
	r.loadErrors = append(r.loadErrors, &LoadError{File: file, Err: err})
}

func (r *Registry) buildSuggesters(log *zap.Logger) {
	for _, e := range r.Entries() {
		if e.Kind != KindDictionary {
			continue
		}
		s, err := labels.NewSuggester(e.Labels)
		if err != nil {
			log.Warn("failed to build label suggester", zap.String("dictionary", e.Name), zap.Error(err))
			continue
		}
		r.suggesters[e.Labels.Ontology()] = s
	}
}

func closeEntry(e Entry) {
	if c, ok := e.Table.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// LoadFile decodes a single artifact. The caller owns the returned entry and must close its
// table when it implements io.Closer.
func LoadFile(ctx context.Context, path string) (Entry, int, error) {
	base := filepath.Base(path)
	name, format, ok := SplitName(base)
	if !ok {
		return Entry{}, 0, fmt.Errorf("unsupported artifact format: %s", base)
	}
	d, err := decodeFile(ctx, path, name, format)
	if err != nil {
		return Entry{}, 0, &LoadError{File: base, Err: err}
	}
	d.entry.File = base
	d.entry.Format = format
	return d.entry, d.skipped, nil
}
