package facetdex

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/usecase/resolver"
)

// --- filterUseCase mock ---

type mockFilterUC struct {
	pagesFn func(ctx context.Context, f filter.Filter, reqs []facet.PageRequest) (resolver.Result, error)
	pageFn  func(ctx context.Context, f filter.Filter, req facet.PageRequest) (facet.Page, error)
}

func (m *mockFilterUC) FacetPages(
	ctx context.Context, f filter.Filter, reqs []facet.PageRequest,
) (resolver.Result, error) {
	return m.pagesFn(ctx, f, reqs)
}

func (m *mockFilterUC) FacetPage(ctx context.Context, f filter.Filter, req facet.PageRequest) (facet.Page, error) {
	return m.pageFn(ctx, f, req)
}

// --- transactionUseCase mock ---

type mockTransactionUC struct {
	pageFn  func(ctx context.Context, f filter.Filter, pageNumber, pageSize int) (record.TransactionPage, error)
	filesFn func(ctx context.Context, id int64) ([]record.File, error)
}

func (m *mockTransactionUC) Page(
	ctx context.Context, f filter.Filter, pageNumber, pageSize int,
) (record.TransactionPage, error) {
	return m.pageFn(ctx, f, pageNumber, pageSize)
}

func (m *mockTransactionUC) Files(ctx context.Context, id int64) ([]record.File, error) {
	return m.filesFn(ctx, id)
}
