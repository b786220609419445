package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/biokgvec/internal/labels"
	"github.com/hyperjump/biokgvec/internal/vector"
)

// SQLiteArtifact is an open SQLite artifact file.
type SQLiteArtifact struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// dsn builds a SQLite URI filename for path. The path is percent-escaped so that
// '?', '#' and '%' in directory or file names reach SQLite intact.
func dsn(path, mode string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=" + mode
}

// Open opens an existing artifact read-only.
func Open(path string) (*SQLiteArtifact, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn(path, "ro"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteArtifact{db: db, path: path, readOnly: true}, nil
}

// Create creates a new artifact at path, replacing any existing file.
// Parent directories are created if they do not exist.
func Create(path string) (*SQLiteArtifact, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to replace artifact: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn(path, "rwc"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteArtifact{db: db, path: path}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE vectors (
		position INTEGER PRIMARY KEY,
		uri TEXT NOT NULL UNIQUE,
		vector BLOB NOT NULL
	);

	CREATE TABLE labels (
		label TEXT PRIMARY KEY,
		uri TEXT NOT NULL
	);

	CREATE TABLE uri_labels (
		uri TEXT PRIMARY KEY,
		label TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the artifact file path.
func (a *SQLiteArtifact) Path() string { return a.path }

// Kind returns the content type recorded in the artifact metadata.
func (a *SQLiteArtifact) Kind(ctx context.Context) (Kind, error) {
	v, err := a.meta(ctx, "kind")
	if err != nil {
		return "", err
	}
	switch k := Kind(v); k {
	case KindVectors, KindLabels:
		return k, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", v)
	}
}

func (a *SQLiteArtifact) meta(ctx context.Context, key string) (string, error) {
	var v string
	err := a.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("artifact metadata missing %q", key)
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (a *SQLiteArtifact) expect(ctx context.Context, want Kind) error {
	k, err := a.Kind(ctx)
	if err != nil {
		return err
	}
	if k != want {
		return fmt.Errorf("%w: %s, expected %s", ErrWrongKind, k, want)
	}
	return nil
}

// ReadVectors loads the vector table in stored order. The returned builder reports skipped keys.
func (a *SQLiteArtifact) ReadVectors(ctx context.Context, name string) (*vector.Builder, error) {
	if err := a.expect(ctx, KindVectors); err != nil {
		return nil, err
	}
	rows, err := a.db.QueryContext(ctx, `SELECT uri, vector FROM vectors ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	b := vector.NewBuilder(name)
	for rows.Next() {
		var uri string
		var blob []byte
		if err := rows.Scan(&uri, &blob); err != nil {
			return nil, err
		}
		vec, err := vector.DecodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", uri, err)
		}
		if err := b.Add(uri, vec); err != nil {
			return nil, err
		}
	}
	return b, rows.Err()
}

// ReadLabels loads the label dictionary.
func (a *SQLiteArtifact) ReadLabels(ctx context.Context, name string) (*labels.Dictionary, error) {
	if err := a.expect(ctx, KindLabels); err != nil {
		return nil, err
	}
	forward, err := a.readPairs(ctx, `SELECT label, uri FROM labels`)
	if err != nil {
		return nil, err
	}
	backward, err := a.readPairs(ctx, `SELECT uri, label FROM uri_labels`)
	if err != nil {
		return nil, err
	}
	return labels.FromMaps(name, forward, backward), nil
}

func (a *SQLiteArtifact) readPairs(ctx context.Context, query string) (map[string]string, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// WriteVectors stores every row of t in table order.
func (a *SQLiteArtifact) WriteVectors(ctx context.Context, t vector.Table) error {
	if a.readOnly {
		return ErrReadOnly
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := writeMeta(ctx, tx, KindVectors, t.Name(), t.Dim()); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vectors (position, uri, vector) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	pos := 0
	for uri, vec := range t.All() {
		if _, err := stmt.ExecContext(ctx, pos, uri, vector.EncodeFloat32s(vec)); err != nil {
			return fmt.Errorf("insert %s: %w", uri, err)
		}
		pos++
	}
	return tx.Commit()
}

// WriteLabels stores both directions of d.
func (a *SQLiteArtifact) WriteLabels(ctx context.Context, d *labels.Dictionary) error {
	if a.readOnly {
		return ErrReadOnly
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := writeMeta(ctx, tx, KindLabels, d.Name(), 0); err != nil {
		return err
	}
	for label, uri := range d.All() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO labels (label, uri) VALUES (?, ?)`, label, uri); err != nil {
			return fmt.Errorf("insert label %q: %w", label, err)
		}
	}
	for uri, label := range d.URIs() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO uri_labels (uri, label) VALUES (?, ?)`, uri, label); err != nil {
			return fmt.Errorf("insert uri %s: %w", uri, err)
		}
	}
	return tx.Commit()
}

func writeMeta(ctx context.Context, tx *sql.Tx, kind Kind, name string, dim int) error {
	for k, v := range map[string]string{"kind": string(kind), "name": name, "dim": strconv.Itoa(dim)} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (a *SQLiteArtifact) Close() error {
	return a.db.Close()
}
