package catalog

import (
	"context"
	"slices"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/index/indextest"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

func newTestRegistry(t *testing.T) (*Registry, *indextest.Memory) {
	t.Helper()
	mem := indextest.Catalog("t")
	return NewRegistry(gateway.New(mem, "t"), Options{CountConcurrency: 2}), mem
}

func mustFacet(t *testing.T, reg *Registry, ft facet.Type) facet.Repository {
	t.Helper()
	repo, err := reg.Facet(ft)
	if err != nil {
		t.Fatalf("Facet(%s): %v", ft, err)
	}
	return repo
}

func sorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

func assertIDs(t *testing.T, got, want []int64) {
	t.Helper()
	if !slices.Equal(sorted(got), sorted(want)) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
}

type entryView struct {
	id    int64
	count int
}

func entriesOf(p facet.Page) []entryView {
	out := make([]entryView, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = entryView{id: e.ID, count: e.TransactionCount}
	}
	return out
}

func page(t *testing.T, repo facet.Repository, c facet.Candidates, req facet.PageRequest) facet.Page {
	t.Helper()
	p, err := repo.PageByTransactionIDs(context.Background(), c, req)
	if err != nil {
		t.Fatalf("PageByTransactionIDs: %v", err)
	}
	return p
}
