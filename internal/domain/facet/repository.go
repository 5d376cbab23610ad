package facet

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/record"
)

// Repository resolves one facet type against transactions.
type Repository interface {
	Type() Type
	// OwnIDsFromTransactions derives this type's ids from transaction records.
	OwnIDsFromTransactions(ctx context.Context, txs []record.Transaction) ([]int64, error)
	// TransactionIDsByOwnIDs returns the transactions related to any of ids.
	TransactionIDsByOwnIDs(ctx context.Context, ids []int64) ([]int64, error)
	// PageByTransactionIDs returns one page of this type's entities related to
	// the candidates. An unconstrained set pages through the whole catalog.
	PageByTransactionIDs(ctx context.Context, candidates Candidates, req PageRequest) (Page, error)
}
