package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/biokgvec/internal/models"
	"github.com/hyperjump/biokgvec/internal/query"
	"github.com/hyperjump/biokgvec/internal/storage"
)

const defaultSuggestLimit = 10

func ontologyParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "ontology"))
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	s.similarity(w, r, ontologyParam(r))
}

func (s *Server) similarityFor(ontology string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.similarity(w, r, ontology)
	}
}

func (s *Server) similarity(w http.ResponseWriter, r *http.Request, ontology string) {
	var req models.SimilarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondQueryError(w, &query.InvalidArgumentError{Field: "request", Reason: err.Error()})
		return
	}
	s.logger.Debug("similarity request",
		zap.String("ontology", ontology),
		zap.String("model", req.Model),
		zap.String("id1", req.ID1),
		zap.String("id2", req.ID2))
	res, err := s.svc.PairwiseSimilarity(ontology, req.Model, req.ID1, req.ID2)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleClosest(w http.ResponseWriter, r *http.Request) {
	s.closest(w, r, ontologyParam(r))
}

func (s *Server) closestFor(ontology string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.closest(w, r, ontology)
	}
}

func (s *Server) closest(w http.ResponseWriter, r *http.Request, ontology string) {
	var req models.NeighborsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Query.DefaultTopN); err != nil {
		s.respondQueryError(w, &query.InvalidArgumentError{Field: "request", Reason: err.Error()})
		return
	}
	s.logger.Debug("closest request",
		zap.String("ontology", ontology),
		zap.String("model", req.Model),
		zap.String("key", req.Key),
		zap.Int("top_n", req.N()))
	res, err := s.svc.NearestNeighbors(ontology, req.Model, req.Key, req.N())
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	ontology := ontologyParam(r)
	q := r.URL.Query().Get("q")
	limit := defaultSuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondQueryError(w, &query.InvalidArgumentError{Field: "limit", Reason: "limit must be an integer"})
			return
		}
		limit = n
	}
	found, err := s.svc.SuggestLabels(ontology, q, limit)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"ontology": ontology, "query": q, "labels": found})
}

// handleModels serves the legacy listing: a bare, sorted array of loaded model names.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	names := s.svc.Registry().Names()
	if names == nil {
		names = []string{}
	}
	s.respondJSON(w, http.StatusOK, names)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"models": s.svc.Models()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loadErrorInfo struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type statusResponse struct {
	SnapshotID      string             `json:"snapshot_id"`
	LoadedAt        time.Time          `json:"loaded_at"`
	ModelsDirectory string             `json:"models_directory"`
	Entries         []models.ModelInfo `json:"entries"`
	LoadErrors      []loadErrorInfo    `json:"load_errors"`
	DiskUsage       *storage.Usage     `json:"disk_usage,omitempty"`
	Config          map[string]any     `json:"config"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reg := s.svc.Registry()
	resp := statusResponse{
		SnapshotID:      reg.ID(),
		LoadedAt:        reg.LoadedAt(),
		ModelsDirectory: reg.Dir(),
		Entries:         s.svc.Models(),
		LoadErrors:      []loadErrorInfo{},
		Config: map[string]any{
			"default_top_n":   s.config.Query.DefaultTopN,
			"request_timeout": s.config.Server.RequestTimeout,
			"ontologies":      s.config.Namespaces(),
		},
	}
	for _, le := range reg.LoadErrors() {
		resp.LoadErrors = append(resp.LoadErrors, loadErrorInfo{File: le.File, Error: le.Err.Error()})
	}
	if dir := reg.Dir(); dir != "" {
		usage, err := storage.DiskUsage(dir)
		if err != nil {
			s.logger.Warn("status: disk usage failed", zap.Error(err))
		} else {
			resp.DiskUsage = &usage
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}
