// Package catalog holds the entity repositories of the catalog: one per facet
// type, plus transactions and files.
//
// Facet repositories relate their own entities to transactions. Direct
// relations (instrument, proposal, user) read the id off the transaction;
// derived ones (institution via user, instrument type via instrument) go
// through their one-hop neighbour, which they obtain from the Registry.
package catalog

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

const (
	defaultPageSize         = 10
	defaultCountConcurrency = 8
)

// searchGateway is the consumer interface for query execution (ISP).
type searchGateway interface {
	Execute(ctx context.Context, q *index.Query) (*gateway.Result, error)
	ExecuteStrict(ctx context.Context, q *index.Query) (*gateway.Result, error)
	ExecuteAll(ctx context.Context, q *index.Query) (*gateway.Result, error)
	ExecuteAllStrict(ctx context.Context, q *index.Query) (*gateway.Result, error)
	ExecuteForIDs(ctx context.Context, q *index.Query) ([]int64, error)
}

// Options tunes paging and per-entry counting.
type Options struct {
	DefaultPageSize  int
	CountConcurrency int
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = defaultPageSize
	}
	if o.CountConcurrency <= 0 {
		o.CountConcurrency = defaultCountConcurrency
	}
	return o
}

func anyIDs(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
