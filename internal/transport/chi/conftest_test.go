package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/index/indextest"
	"github.com/kailas-cloud/facetdex/internal/repository/catalog"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	"github.com/kailas-cloud/facetdex/internal/usecase/resolver"
	txuc "github.com/kailas-cloud/facetdex/internal/usecase/transaction"
)

// --- Mocks ---

// mockResolver fails every call with err and records the page requests.
type mockResolver struct {
	err  error
	reqs []facet.PageRequest
}

func (m *mockResolver) FacetPages(_ context.Context, _ filter.Filter, reqs []facet.PageRequest) (resolver.Result, error) {
	m.reqs = append(m.reqs, reqs...)
	if m.err != nil {
		return resolver.Result{}, m.err
	}
	return resolver.Result{Pages: map[facet.Type]facet.Page{}}, nil
}

func (m *mockResolver) FacetPage(_ context.Context, _ filter.Filter, req facet.PageRequest) (facet.Page, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return facet.Page{}, m.err
	}
	return facet.EmptyPage(req.PageNumber, req.PageSize), nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// --- Helpers ---

const emptyFilterBody = `{"institution":[],"instrument":[],"instrument_type":[],"proposal":[],"user":[],"text":""}`

// newCatalogRouter serves the API over the seeded in-memory catalog.
func newCatalogRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := catalog.NewRegistry(gateway.New(indextest.Catalog("t"), "t"), catalog.Options{})
	res := resolver.New(reg, reg.Transactions())
	txs := txuc.New(res, reg.Transactions(), reg.Files())
	health := healthuc.New(pingerFunc(func(context.Context) error { return nil }), nil)
	return newRouter(NewServer(res, txs, health, 100, zap.NewNop()))
}

func newMockRouter(t *testing.T, r FilterResolver, health HealthChecker) http.Handler {
	t.Helper()
	reg := catalog.NewRegistry(gateway.New(indextest.Catalog("t"), "t"), catalog.Options{})
	txs := txuc.New(resolver.New(reg, reg.Transactions()), reg.Transactions(), reg.Files())
	if health == nil {
		health = healthuc.New(pingerFunc(func(context.Context) error { return nil }), nil)
	}
	return newRouter(NewServer(r, txs, health, 100, zap.NewNop()))
}

func newRouter(s *Server) http.Handler {
	r := gochi.NewRouter()
	s.Routes(r)
	return r
}

// filterBody builds a wire filter from the empty one, overriding the given keys.
func filterBody(overrides map[string]string) string {
	body := emptyFilterBody
	for k, v := range overrides {
		old := `"` + k + `":[]`
		if k == facet.TextKey {
			old = `"text":""`
		}
		body = strings.Replace(body, old, `"`+k+`":`+v, 1)
	}
	return body
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
