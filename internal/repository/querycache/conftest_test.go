package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/index"
)

type mockSearcher struct {
	result *index.Response
	err    error
	calls  int
	opened []string
	closed []string
}

func (m *mockSearcher) Search(_ context.Context, _ *index.Request) (*index.Response, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockSearcher) OpenPointInTime(_ context.Context, indexName string, _ time.Duration) (string, error) {
	m.opened = append(m.opened, indexName)
	return "pit-" + indexName, nil
}

func (m *mockSearcher) ClosePointInTime(_ context.Context, id string) error {
	m.closed = append(m.closed, id)
	return nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedSearcher(t *testing.T, inner *mockSearcher) (*CachedSearcher, *mockKVStore, *prometheus.CounterVec) {
	t.Helper()
	ms := &mockKVStore{}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_query_cache_total"}, []string{"result"})
	return New(inner, ms, time.Minute, counter, zap.NewNop()), ms, counter
}

func testRequest() *index.Request {
	return &index.Request{Index: "catalog_users", Body: []byte(`{"query":{"match_all":{}}}`)}
}
