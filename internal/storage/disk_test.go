package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "GO_TransE.kvec")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := DiskUsage(f1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bytes != 5 || got.Files != 1 {
		t.Errorf("single file: got %+v, want 5 bytes in 1 file", got)
	}

	sub := filepath.Join(dir, "v1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "HP_Labels.json"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DiskUsage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bytes != 7 || got.Files != 2 {
		t.Errorf("directory: got %+v, want 7 bytes in 2 files", got)
	}

	got, err = DiskUsage(filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Bytes != 0 || got.Files != 0 {
		t.Errorf("missing path: got %+v, want zero", got)
	}
}
