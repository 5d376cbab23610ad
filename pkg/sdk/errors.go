package facetdex

import "github.com/kailas-cloud/facetdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMalformedFilter      = domain.ErrMalformedFilter
	ErrUnexpectedKey        = domain.ErrUnexpectedKey
	ErrMissingKey           = domain.ErrMissingKey
	ErrInvalidFacetType     = domain.ErrInvalidFacetType
	ErrInvalidPage          = domain.ErrInvalidPage
	ErrSearchBackend        = domain.ErrSearchBackend
	ErrBackendInconsistency = domain.ErrBackendInconsistency
	ErrNotFound             = domain.ErrNotFound
)
