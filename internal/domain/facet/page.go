package facet

import (
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

// PageRequest asks for one page of selectable entries of a facet type.
type PageRequest struct {
	Type        Type
	PageNumber  int
	PageSize    int
	ExcludedIDs []int64
}

// Validate checks the facet type and the 1-based page number.
func (r PageRequest) Validate() error {
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidFacetType, r.Type)
	}
	if r.PageNumber < 1 {
		return fmt.Errorf("%w: page number must be >= 1, got %d", domain.ErrInvalidPage, r.PageNumber)
	}
	if r.PageSize < 0 {
		return fmt.Errorf("%w: page size must be >= 0, got %d", domain.ErrInvalidPage, r.PageSize)
	}
	return nil
}

// Entry is one selectable facet option.
type Entry struct {
	ID               int64  `json:"id"`
	DisplayName      string `json:"display_name"`
	TransactionCount int    `json:"transaction_count"`
}

// Page is a slice of entries plus pagination metadata.
type Page struct {
	Entries    []Entry `json:"entries"`
	PageNumber int     `json:"page_number"`
	PageSize   int     `json:"page_size"`
	TotalCount int     `json:"total_count"`
}

// HasMore reports whether entries exist beyond this page.
func (p Page) HasMore() bool {
	return p.PageNumber*p.PageSize < p.TotalCount
}

// EmptyPage returns a page with no entries.
func EmptyPage(pageNumber, pageSize int) Page {
	return Page{Entries: []Entry{}, PageNumber: pageNumber, PageSize: pageSize}
}

// Candidates is the set of transactions a facet page is computed against.
// An unconstrained set stands for every transaction in the catalog.
type Candidates struct {
	ids         []int64
	constrained bool
}

// Unconstrained returns the candidate set of the whole catalog.
func Unconstrained() Candidates { return Candidates{} }

// Constrained returns a candidate set restricted to ids (possibly none).
func Constrained(ids []int64) Candidates {
	if ids == nil {
		ids = []int64{}
	}
	return Candidates{ids: ids, constrained: true}
}

// IsConstrained reports whether the set is restricted.
func (c Candidates) IsConstrained() bool { return c.constrained }

// IDs returns the restricted ids. Nil for an unconstrained set.
func (c Candidates) IDs() []int64 { return c.ids }
