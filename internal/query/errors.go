package query

import (
	"errors"
	"fmt"

	"github.com/hyperjump/biokgvec/internal/resolver"
)

var (
	ErrModelNotFound      = errors.New("model not found")
	ErrIdentifierNotFound = errors.New("identifier not found")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// ModelNotFoundError reports an (ontology, method) pair with no loaded vector table.
type ModelNotFoundError struct {
	Ontology string
	Method   string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", ModelName(e.Ontology, e.Method))
}

func (e *ModelNotFoundError) Unwrap() error { return ErrModelNotFound }

// IdentifierNotFoundError reports a resolved URI that has no row in the model's table.
type IdentifierNotFoundError struct {
	Model string
	Input string
	URI   string
}

func (e *IdentifierNotFoundError) Error() string {
	return fmt.Sprintf("%s: identifier not found: %s", e.Model, e.URI)
}

func (e *IdentifierNotFoundError) Unwrap() error { return ErrIdentifierNotFound }

// InvalidArgumentError reports a request field with an unusable value.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// Error codes shared by metrics labels and API error payloads.
const (
	CodeOK                 = "ok"
	CodeModelNotFound      = "model_not_found"
	CodeUnresolved         = "label_not_found"
	CodeIdentifierNotFound = "identifier_not_found"
	CodeInvalidArgument    = "invalid_argument"
	CodeInternal           = "internal"
)

// Code classifies err into one of the Code constants.
func Code(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrModelNotFound):
		return CodeModelNotFound
	case errors.Is(err, resolver.ErrLabelNotFound):
		return CodeUnresolved
	case errors.Is(err, ErrIdentifierNotFound):
		return CodeIdentifierNotFound
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}
