package resolver

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
)

// Repositories hands out facet repositories by type.
type Repositories interface {
	Facet(t facet.Type) (facet.Repository, error)
}

// Transactions reads the pivot transaction index.
type Transactions interface {
	IDsByText(ctx context.Context, text string) ([]int64, error)
	Count(ctx context.Context) (int, error)
}
