package transaction

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
)

// Matcher narrows a filter down to its candidate transactions.
type Matcher interface {
	Matching(ctx context.Context, f filter.Filter) (facet.Candidates, error)
}

// Repository reads transactions.
type Repository interface {
	Get(ctx context.Context, id int64) (record.Transaction, error)
	Page(ctx context.Context, candidates facet.Candidates, pageNumber, pageSize int) (record.TransactionPage, error)
}

// FileLister lists the files of a transaction.
type FileLister interface {
	ListByTransaction(ctx context.Context, transactionID int64) ([]record.File, error)
}
