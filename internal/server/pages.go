package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/biokgvec/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTitles = map[string]string{
	"index.html":    "BioKG Embeddings",
	"about.html":    "About",
	"query.html":    "Query",
	"licenses.html": "Licenses",
	"download.html": "Download",
	"contact.html":  "Contact",
}

type pages struct {
	byName map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageTitles))}
	for name := range pageTitles {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

type pageData struct {
	Title      string
	Ontologies []string
	Methods    map[string][]string
	Models     []models.ModelInfo
	Releases   []release
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	if name == "" {
		name = "index.html"
	}
	t, ok := s.pages.byName[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := pageData{Title: pageTitles[name], Methods: make(map[string][]string)}
	reg := s.svc.Registry()
	for _, o := range s.config.Ontologies {
		data.Ontologies = append(data.Ontologies, o.Prefix)
		data.Methods[o.Prefix] = reg.Methods(o.Prefix)
	}
	switch name {
	case "query.html":
		data.Models = s.svc.Models()
	case "download.html":
		rels, err := listReleases(s.config.Downloads.Directory)
		if err != nil {
			s.logger.Warn("list releases failed", zap.Error(err))
		}
		data.Releases = rels
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render page failed", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
