package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFilter signals an empty or unparseable filter payload.
	ErrMalformedFilter = errors.New("malformed filter")
	// ErrUnexpectedKey signals a filter key that is not a known facet type.
	ErrUnexpectedKey = errors.New("unexpected filter key")
	// ErrMissingKey signals a known facet type absent from a filter.
	ErrMissingKey = errors.New("missing filter key")
	// ErrInvalidFacetType signals a reference to an unknown facet type.
	ErrInvalidFacetType = errors.New("invalid facet type")
	// ErrInvalidPage signals a page request with a page number below 1.
	ErrInvalidPage = errors.New("invalid page request")
	// ErrInvalidType signals a query built for an unknown backing index type.
	ErrInvalidType = errors.New("invalid backing type")
	// ErrSearchBackend signals a failed round trip to the search index.
	ErrSearchBackend = errors.New("search backend error")
	// ErrBackendInconsistency signals an empty answer to a query that must have data.
	ErrBackendInconsistency = errors.New("search backend inconsistency")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// KeyError reports the offending key of a filter payload.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err.Error(), e.Key)
}

func (e *KeyError) Unwrap() error { return e.Err }

// NewUnexpectedKey creates a KeyError wrapping ErrUnexpectedKey.
func NewUnexpectedKey(key string) error {
	return &KeyError{Key: key, Err: ErrUnexpectedKey}
}

// NewMissingKey creates a KeyError wrapping ErrMissingKey.
func NewMissingKey(key string) error {
	return &KeyError{Key: key, Err: ErrMissingKey}
}

// SearchBackendError carries the serialized query that failed together with the cause.
// It matches both ErrSearchBackend and the underlying error via errors.Is.
type SearchBackendError struct {
	Query string
	Err   error
}

func (e *SearchBackendError) Error() string {
	return fmt.Sprintf("%s: %v (query: %s)", ErrSearchBackend.Error(), e.Err, e.Query)
}

func (e *SearchBackendError) Unwrap() []error { return []error{ErrSearchBackend, e.Err} }

// NewSearchBackendError wraps err with the query payload that triggered it.
func NewSearchBackendError(query string, err error) error {
	return &SearchBackendError{Query: query, Err: err}
}
