package catalog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/idset"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

// relation links a facet type's ids to transaction ids in both directions.
type relation interface {
	ownIDs(ctx context.Context, txs []record.Transaction) ([]int64, error)
	transactionIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// direct is a relation stored as a field of the transaction document.
type direct struct {
	tx    *TransactionRepo
	field string
	pick  func(record.Transaction) int64
}

func (d *direct) ownIDs(_ context.Context, txs []record.Transaction) ([]int64, error) {
	ids := make([]int64, 0, len(txs))
	for _, t := range txs {
		if id := d.pick(t); id != 0 {
			ids = append(ids, id)
		}
	}
	return idset.Dedupe(ids), nil
}

func (d *direct) transactionIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return d.tx.IDsByField(ctx, d.field, ids)
}

// derived is a relation through a neighbour facet type: own documents list
// the neighbour ids in field, and the neighbour relates to transactions.
type derived struct {
	reg     *Registry
	gw      searchGateway
	own     facet.Backing
	through facet.Type
	field   string
	scope   func(*index.Query) *index.Query
	// members extracts the neighbour ids listed by own documents.
	members func(hits []index.Hit) ([]int64, error)
}

func (d *derived) ownIDs(ctx context.Context, txs []record.Transaction) ([]int64, error) {
	nb, err := d.reg.Facet(d.through)
	if err != nil {
		return nil, err
	}
	nbIDs, err := nb.OwnIDsFromTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", d.through, err)
	}
	if len(nbIDs) == 0 {
		return []int64{}, nil
	}

	q := index.MustQuery(d.own)
	if d.scope != nil {
		q = d.scope(q)
	}
	ids, err := d.gw.ExecuteForIDs(ctx, q.EqualsOrIn(d.field, anyIDs(nbIDs)...))
	if err != nil {
		return nil, fmt.Errorf("%s by %s: %w", d.own, d.field, err)
	}
	return ids, nil
}

func (d *derived) transactionIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	res, err := d.gw.ExecuteAll(ctx, index.MustQuery(d.own).ByIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", d.own, err)
	}
	nbIDs, err := d.members(res.Hits)
	if err != nil {
		return nil, err
	}
	if len(nbIDs) == 0 {
		return []int64{}, nil
	}

	nb, err := d.reg.Facet(d.through)
	if err != nil {
		return nil, err
	}
	return nb.TransactionIDsByOwnIDs(ctx, nbIDs)
}

func institutionUsers(hits []index.Hit) ([]int64, error) {
	recs, err := gateway.Decode[record.Institution](hits)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, r := range recs {
		ids = append(ids, r.Users...)
	}
	return idset.Dedupe(ids), nil
}

// instrumentTypeInstruments ignores groups of other categories; ids queries
// bypass the category filter.
func instrumentTypeInstruments(hits []index.Hit) ([]int64, error) {
	recs, err := gateway.Decode[record.Group](hits)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, r := range recs {
		if r.Category == facet.InstrumentTypeCategory {
			ids = append(ids, r.Instruments...)
		}
	}
	return idset.Dedupe(ids), nil
}
