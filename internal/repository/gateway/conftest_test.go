package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/facetdex/internal/index"
)

// mockSearcher implements the consumer interface for tests.
type mockSearcher struct {
	searchFn func(ctx context.Context, req *index.Request) (*index.Response, error)
	openErr  error
	requests []*index.Request
	closed   []string
}

func (m *mockSearcher) OpenPointInTime(_ context.Context, indexName string, _ time.Duration) (string, error) {
	if m.openErr != nil {
		return "", m.openErr
	}
	return "pit-" + indexName, nil
}

func (m *mockSearcher) ClosePointInTime(_ context.Context, id string) error {
	m.closed = append(m.closed, id)
	return nil
}

func (m *mockSearcher) Search(ctx context.Context, req *index.Request) (*index.Response, error) {
	m.requests = append(m.requests, req)
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &index.Response{}, nil
}

func newTestGateway(t *testing.T) (*Gateway, *mockSearcher) {
	t.Helper()
	ms := &mockSearcher{}
	return New(ms, "catalog"), ms
}

func hits(ids ...string) []index.Hit {
	out := make([]index.Hit, len(ids))
	for i, id := range ids {
		out[i] = index.Hit{ID: id}
	}
	return out
}
