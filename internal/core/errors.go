package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMediaType is returned when an uploaded archive is not a zip container.
	ErrUnsupportedMediaType = errors.New("only zip archives are allowed")

	// ErrMissingManifest is returned when the archive carries no metadata.json entry.
	ErrMissingManifest = errors.New("metadata.json not found in archive")

	// ErrMalformedDocument is returned when a file's bytes are not a parseable PDF.
	ErrMalformedDocument = errors.New("malformed pdf document")

	// ErrDuplicateDocument is returned when the slug id is already present in the index.
	ErrDuplicateDocument = errors.New("a document with this id already exists")

	// ErrResourceNotFound is returned for unknown document ids or missing resource urls.
	ErrResourceNotFound = errors.New("resource not found")
)

// UpstreamError wraps a failed call to the search index or the blob store,
// carrying the upstream status so handlers can surface it instead of
// swallowing it.
type UpstreamError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.StatusCode, e.Detail)
}
