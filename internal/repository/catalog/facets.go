package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/idset"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

// displayRecord is a pointer to a facet record decoded from the index.
type displayRecord[T any] interface {
	*T
	SetID(int64)
	DisplayName() string
}

// facetRepo implements facet.Repository for records of type T.
type facetRepo[T any, P displayRecord[T]] struct {
	ft    facet.Type
	gw    searchGateway
	tx    *TransactionRepo
	rel   relation
	scope func(*index.Query) *index.Query
	opts  Options
}

var _ facet.Repository = (*facetRepo[record.User, *record.User])(nil)

func (r *facetRepo[T, P]) Type() facet.Type { return r.ft }

func (r *facetRepo[T, P]) OwnIDsFromTransactions(ctx context.Context, txs []record.Transaction) ([]int64, error) {
	if len(txs) == 0 {
		return []int64{}, nil
	}
	return r.rel.ownIDs(ctx, txs)
}

func (r *facetRepo[T, P]) TransactionIDsByOwnIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	return r.rel.transactionIDs(ctx, ids)
}

func (r *facetRepo[T, P]) PageByTransactionIDs(
	ctx context.Context, candidates facet.Candidates, req facet.PageRequest,
) (facet.Page, error) {
	req.Type = r.ft
	if err := req.Validate(); err != nil {
		return facet.Page{}, err
	}
	size := req.PageSize
	if size == 0 {
		size = r.opts.DefaultPageSize
	}
	if size > index.MaxResultWindow {
		return facet.Page{}, errPageSize
	}

	var (
		page facet.Page
		err  error
	)
	if candidates.IsConstrained() {
		page, err = r.constrainedPage(ctx, candidates.IDs(), req, size)
	} else {
		page, err = r.catalogPage(ctx, req, size)
	}
	if err != nil {
		return facet.Page{}, fmt.Errorf("%s page %d: %w", r.ft, req.PageNumber, err)
	}

	if err := r.countTransactions(ctx, page.Entries, candidates); err != nil {
		return facet.Page{}, err
	}
	return page, nil
}

// catalogPage pages through every entity of the type, minus the excluded ones,
// in display order.
func (r *facetRepo[T, P]) catalogPage(ctx context.Context, req facet.PageRequest, size int) (facet.Page, error) {
	q := r.newQuery().ExcludeIDs(req.ExcludedIDs).Paginate(req.PageNumber, size)
	for _, field := range r.ft.SortFields() {
		q.SortBy(field, false)
	}
	res, err := r.gw.Execute(ctx, q)
	if err != nil {
		return facet.Page{}, err
	}
	entries, err := r.entries(res.Hits, nil)
	if err != nil {
		return facet.Page{}, err
	}
	return facet.Page{Entries: entries, PageNumber: req.PageNumber, PageSize: size, TotalCount: res.Total}, nil
}

// constrainedPage derives own ids from the candidates, then pages them in ascending id order.
func (r *facetRepo[T, P]) constrainedPage(
	ctx context.Context, candidates []int64, req facet.PageRequest, size int,
) (facet.Page, error) {
	page := facet.EmptyPage(req.PageNumber, size)
	if len(candidates) == 0 {
		return page, nil
	}

	txs, err := r.tx.HitsByIDs(ctx, candidates)
	if err != nil {
		return facet.Page{}, err
	}
	own, err := r.OwnIDsFromTransactions(ctx, txs)
	if err != nil {
		return facet.Page{}, err
	}
	own = idset.Sorted(idset.Subtract(own, req.ExcludedIDs))
	page.TotalCount = len(own)

	from := (req.PageNumber - 1) * size
	if from >= len(own) || size == 0 {
		return page, nil
	}
	pageIDs := own[from:min(from+size, len(own))]

	// Every id came from the index, so an empty answer means the index is inconsistent.
	res, err := r.gw.ExecuteStrict(ctx, index.MustQuery(r.ft.Backing()).ByIDs(pageIDs))
	if err != nil {
		return facet.Page{}, err
	}
	page.Entries, err = r.entries(res.Hits, pageIDs)
	if err != nil {
		return facet.Page{}, err
	}
	return page, nil
}

// entries decodes hits; with order set, entries follow it and unknown ids are dropped.
func (r *facetRepo[T, P]) entries(hits []index.Hit, order []int64) ([]facet.Entry, error) {
	recs, err := gateway.Decode[T, P](hits)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]facet.Entry, len(recs))
	entries := make([]facet.Entry, 0, len(recs))
	for i := range recs {
		id, _ := gateway.ParseID(hits[i].ID)
		e := facet.Entry{ID: id, DisplayName: P(&recs[i]).DisplayName()}
		byID[id] = e
		entries = append(entries, e)
	}
	if order == nil {
		return entries, nil
	}

	entries = entries[:0]
	for _, id := range order {
		if e, ok := byID[id]; ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// countTransactions fills TransactionCount with the entry's transactions inside the candidates.
func (r *facetRepo[T, P]) countTransactions(ctx context.Context, entries []facet.Entry, candidates facet.Candidates) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.CountConcurrency)

	for i := range entries {
		g.Go(func() error {
			ids, err := r.rel.transactionIDs(ctx, []int64{entries[i].ID})
			if err != nil {
				return fmt.Errorf("count transactions of %s %d: %w", r.ft, entries[i].ID, err)
			}
			if candidates.IsConstrained() {
				entries[i].TransactionCount = idset.Count(ids, candidates.IDs())
			} else {
				entries[i].TransactionCount = len(ids)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *facetRepo[T, P]) newQuery() *index.Query {
	q := index.MustQuery(r.ft.Backing())
	if r.scope != nil {
		q = r.scope(q)
	}
	return q
}

var errPageSize = fmt.Errorf("%w: page size exceeds %d", domain.ErrInvalidPage, index.MaxResultWindow)
