package resolver

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index/indextest"
	"github.com/kailas-cloud/facetdex/internal/repository/catalog"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

// --- Mocks ---

// mockRepo returns fixed transactions and records the page calls it receives.
type mockRepo struct {
	ft    facet.Type
	txIDs []int64
	txErr error

	mu         sync.Mutex
	candidates []facet.Candidates
	requests   []facet.PageRequest
}

func (m *mockRepo) Type() facet.Type { return m.ft }

func (m *mockRepo) OwnIDsFromTransactions(_ context.Context, _ []record.Transaction) ([]int64, error) {
	return []int64{}, nil
}

func (m *mockRepo) TransactionIDsByOwnIDs(_ context.Context, _ []int64) ([]int64, error) {
	return m.txIDs, m.txErr
}

func (m *mockRepo) PageByTransactionIDs(
	_ context.Context, c facet.Candidates, req facet.PageRequest,
) (facet.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = append(m.candidates, c)
	m.requests = append(m.requests, req)
	return facet.EmptyPage(req.PageNumber, req.PageSize), nil
}

type mockRepos map[facet.Type]*mockRepo

func (m mockRepos) Facet(t facet.Type) (facet.Repository, error) {
	r, ok := m[t]
	if !ok {
		return nil, domain.ErrInvalidFacetType
	}
	return r, nil
}

type mockTransactions struct {
	textIDs []int64
	count   int
	err     error
}

func (m *mockTransactions) IDsByText(_ context.Context, _ string) ([]int64, error) {
	return m.textIDs, m.err
}

func (m *mockTransactions) Count(_ context.Context) (int, error) { return m.count, m.err }

func newMockService(t *testing.T, txIDs map[facet.Type][]int64) (*Service, mockRepos, *mockTransactions) {
	t.Helper()
	repos := mockRepos{}
	for _, ft := range facet.All() {
		repos[ft] = &mockRepo{ft: ft, txIDs: txIDs[ft]}
	}
	txs := &mockTransactions{count: 42}
	return New(repos, txs), repos, txs
}

// newCatalogService runs the resolver against the in-memory seeded catalog.
func newCatalogService(t *testing.T) *Service {
	t.Helper()
	reg := catalog.NewRegistry(gateway.New(indextest.Catalog("t"), "t"), catalog.Options{})
	return New(reg, reg.Transactions())
}

func mustFilter(t *testing.T, text string, sel map[facet.Type][]int64) filter.Filter {
	t.Helper()
	f := filter.Empty().WithText(text)
	for ft, ids := range sel {
		var err error
		if f, err = f.WithIDs(ft, ids); err != nil {
			t.Fatalf("WithIDs: %v", err)
		}
	}
	return f
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

func assertEntries(t *testing.T, ft facet.Type, p facet.Page, want []entryView) {
	t.Helper()
	if got := entriesOf(p); !slices.Equal(got, want) {
		t.Errorf("%s entries = %v, want %v", ft.MachineName(), got, want)
	}
}
