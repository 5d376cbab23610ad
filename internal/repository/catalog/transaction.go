package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

// TransactionRepo reads the transactions index.
type TransactionRepo struct {
	gw   searchGateway
	opts Options
}

// NewTransactionRepo creates a transaction repository.
func NewTransactionRepo(gw searchGateway, opts Options) *TransactionRepo {
	return &TransactionRepo{gw: gw, opts: opts.withDefaults()}
}

// HitsByIDs fetches transaction records. Ids taken from the index must resolve,
// so an empty answer for a non-empty id list is an inconsistency.
func (r *TransactionRepo) HitsByIDs(ctx context.Context, ids []int64) ([]record.Transaction, error) {
	if len(ids) == 0 {
		return []record.Transaction{}, nil
	}
	res, err := r.gw.ExecuteAllStrict(ctx, index.MustQuery(facet.BackingTransactions).ByIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	return gateway.Decode[record.Transaction](res.Hits)
}

// Get fetches one transaction.
func (r *TransactionRepo) Get(ctx context.Context, id int64) (record.Transaction, error) {
	res, err := r.gw.Execute(ctx, index.MustQuery(facet.BackingTransactions).ByIDs([]int64{id}))
	if err != nil {
		return record.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return record.Transaction{}, fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
	}
	recs, err := gateway.Decode[record.Transaction](res.Hits[:1])
	if err != nil {
		return record.Transaction{}, err
	}
	return recs[0], nil
}

// IDsByField returns the transactions whose field holds any of values.
func (r *TransactionRepo) IDsByField(ctx context.Context, field string, values []int64) ([]int64, error) {
	if len(values) == 0 {
		return []int64{}, nil
	}
	q := index.MustQuery(facet.BackingTransactions).EqualsOrIn(field, anyIDs(values)...)
	ids, err := r.gw.ExecuteForIDs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("transactions by %s: %w", field, err)
	}
	return ids, nil
}

// IDsByText returns the transactions matching a full-text query.
func (r *TransactionRepo) IDsByText(ctx context.Context, text string) ([]int64, error) {
	ids, err := r.gw.ExecuteForIDs(ctx, index.MustQuery(facet.BackingTransactions).ByText(text))
	if err != nil {
		return nil, fmt.Errorf("transactions by text: %w", err)
	}
	return ids, nil
}

// Count returns the number of transactions in the catalog.
func (r *TransactionRepo) Count(ctx context.Context) (int, error) {
	q := index.MustQuery(facet.BackingTransactions).MetadataOnly().Paginate(1, 0)
	res, err := r.gw.Execute(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return res.Total, nil
}

// Page returns one page of the candidate transactions, newest first.
// Within a constrained set ties on created go to the higher id.
func (r *TransactionRepo) Page(ctx context.Context, candidates facet.Candidates, pageNumber, pageSize int) (record.TransactionPage, error) {
	if pageNumber < 1 {
		return record.TransactionPage{}, fmt.Errorf("%w: page number must be >= 1, got %d", domain.ErrInvalidPage, pageNumber)
	}
	if pageSize <= 0 {
		pageSize = r.opts.DefaultPageSize
	}
	if pageSize > index.MaxResultWindow {
		return record.TransactionPage{}, errPageSize
	}
	page := record.TransactionPage{Transactions: []record.Transaction{}, PageNumber: pageNumber, PageSize: pageSize}

	if !candidates.IsConstrained() {
		q := index.MustQuery(facet.BackingTransactions).SortBy("created", true).Paginate(pageNumber, pageSize)
		res, err := r.gw.Execute(ctx, q)
		if err != nil {
			return record.TransactionPage{}, fmt.Errorf("transaction page %d: %w", pageNumber, err)
		}
		txs, err := gateway.Decode[record.Transaction](res.Hits)
		if err != nil {
			return record.TransactionPage{}, err
		}
		page.Transactions, page.TotalCount = txs, res.Total
		return page, nil
	}

	txs, err := r.HitsByIDs(ctx, candidates.IDs())
	if err != nil {
		return record.TransactionPage{}, err
	}
	slices.SortFunc(txs, func(a, b record.Transaction) int {
		if c := cmp.Compare(b.Created, a.Created); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	page.TotalCount = len(txs)

	from := (pageNumber - 1) * pageSize
	if from < len(txs) {
		page.Transactions = txs[from:min(from+pageSize, len(txs))]
	}
	return page, nil
}
