// Package index defines the contract with the search index backend.
package index

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
)

// Searcher executes serialized queries against the index backend.
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// PointInTimer opens consistent views of an index. Searches that page past
// MaxResultWindow run inside such a view.
type PointInTimer interface {
	OpenPointInTime(ctx context.Context, index string, keepAlive time.Duration) (string, error)
	ClosePointInTime(ctx context.Context, id string) error
}

// Backend is a Searcher able to page through point-in-time views.
type Backend interface {
	Searcher
	PointInTimer
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Request is one search call: the target index plus a serialized query body.
// Index is empty when the body addresses a point-in-time view.
type Request struct {
	Index       string
	Backing     facet.Backing
	Body        []byte
	PointInTime string
}

// Response is the decoded answer of a search call.
type Response struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
	// PointInTime is the refreshed view id of a point-in-time search.
	PointInTime string `json:"pit_id,omitempty"`
}

// Hit is a single matching document. Source is empty for metadata-only queries.
// Sort holds the raw sort values, the search_after key of the next page.
type Hit struct {
	ID     string            `json:"id"`
	Source json.RawMessage   `json:"source,omitempty"`
	Sort   []json.RawMessage `json:"sort,omitempty"`
}
