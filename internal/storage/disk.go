package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Usage summarizes the files under a set of paths.
type Usage struct {
	Bytes int64 `json:"bytes"`
	Files int   `json:"files"`
}

// DiskUsage returns the total size and file count of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths contribute nothing; other errors are returned.
func DiskUsage(paths ...string) (Usage, error) {
	var u Usage
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Usage{}, err
		}
		if !info.IsDir() {
			u.Bytes += info.Size()
			u.Files++
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			u.Bytes += fi.Size()
			u.Files++
			return nil
		})
		if err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
