// Package storage reads and writes SQLite model artifacts and reports disk usage of model paths.
//
// An artifact file holds either one vector table or one label dictionary:
//
//	meta(key, value)              kind, name, dim
//	vectors(position, uri, vector)  little-endian float32 BLOBs in table order
//	labels(label, uri)            forward direction
//	uri_labels(uri, label)        backward direction
package storage

import "errors"

// Kind is the content type of an artifact file.
type Kind string

const (
	KindVectors Kind = "vectors"
	KindLabels  Kind = "labels"
)

var (
	// ErrWrongKind is returned when an artifact is read as the wrong content type.
	ErrWrongKind = errors.New("artifact holds a different kind of data")
	// ErrReadOnly is returned when writing to an artifact opened for reading.
	ErrReadOnly = errors.New("artifact is read-only")
)
