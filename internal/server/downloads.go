package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// plainName reports whether s is a single path element that cannot escape its directory.
func plainName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.HasPrefix(s, ".")
}

func (s *Server) handleDownloadDirect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !plainName(name) {
		s.respondError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	s.serveAttachment(w, r, filepath.Join(s.config.Models.Directory, name))
}

func (s *Server) handleDownloadFolder(w http.ResponseWriter, r *http.Request) {
	ont := chi.URLParam(r, "ontology")
	version := chi.URLParam(r, "version")
	name := chi.URLParam(r, "filename")
	for _, part := range []string{ont, version, name} {
		if !plainName(part) {
			s.respondError(w, http.StatusBadRequest, "invalid path")
			return
		}
	}
	s.serveAttachment(w, r, filepath.Join(s.config.Downloads.Directory, ont, version, name))
}

func (s *Server) serveAttachment(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "file not found")
			return
		}
		s.logger.Error("download failed", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "download failed")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	s.logger.Debug("download", zap.String("path", path), zap.Int64("bytes", info.Size()))
	w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// release is one downloadable file in the downloads tree.
type release struct {
	Ontology string
	Version  string
	File     string
	Size     int64
}

// listReleases returns the files at depth ontology/version/file under root, in path order.
func listReleases(root string) ([]release, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*", "*", "*"))
	if err != nil {
		return nil, err
	}
	var out []release
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(root, m)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 || !plainName(parts[0]) || !plainName(parts[1]) || !plainName(parts[2]) {
			continue
		}
		out = append(out, release{Ontology: parts[0], Version: parts[1], File: parts[2], Size: info.Size()})
	}
	return out, nil
}
