package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/biokgvec/internal/query"
	"github.com/hyperjump/biokgvec/internal/resolver"
)

// statusFor maps a query error to its HTTP status.
func statusFor(err error) int {
	switch query.Code(err) {
	case query.CodeModelNotFound:
		return http.StatusNotFound
	case query.CodeUnresolved, query.CodeIdentifierNotFound, query.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{"error": message, "status": status})
}

// respondQueryError writes {"error", "code", "status"} plus whatever context the error carries.
func (s *Server) respondQueryError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]interface{}{
		"error":  err.Error(),
		"code":   query.Code(err),
		"status": status,
	}
	var (
		mnf *query.ModelNotFoundError
		inf *query.IdentifierNotFoundError
		re  *resolver.ResolutionError
		iae *query.InvalidArgumentError
	)
	switch {
	case errors.As(err, &mnf):
		body["model"] = query.ModelName(mnf.Ontology, mnf.Method)
	case errors.As(err, &inf):
		body["model"] = inf.Model
		body["identifier"] = inf.Input
		body["uri"] = inf.URI
	case errors.As(err, &re):
		body["identifier"] = re.Input
		body["ontology"] = re.Ontology
		if len(re.Suggestions) > 0 {
			body["suggestions"] = re.Suggestions
		}
	case errors.As(err, &iae):
		body["field"] = iae.Field
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("query failed", zap.Error(err))
	} else {
		s.logger.Debug("query rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondJSON(w, status, body)
}
