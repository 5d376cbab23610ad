// Package gateway is the single point of contact between the repositories and the search index.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/idset"
	"github.com/kailas-cloud/facetdex/internal/index"
)

// pitKeepAlive bounds how long a view stays open between two pages of a scan.
const pitKeepAlive = time.Minute

// backend is the consumer interface for the index backend (ISP).
type backend interface {
	Search(ctx context.Context, req *index.Request) (*index.Response, error)
	OpenPointInTime(ctx context.Context, index string, keepAlive time.Duration) (string, error)
	ClosePointInTime(ctx context.Context, id string) error
}

// Result is the outcome of one executed query.
type Result struct {
	Total int
	Hits  []index.Hit
}

// Gateway executes built queries against per-type indices named <prefix>_<backing>.
type Gateway struct {
	backend backend
	prefix  string
}

// New creates a gateway. An empty prefix addresses indices by their backing name alone.
func New(b backend, indexPrefix string) *Gateway {
	return &Gateway{backend: b, prefix: indexPrefix}
}

// IndexName returns the physical index queried for a backing type.
func (g *Gateway) IndexName(b facet.Backing) string {
	if g.prefix == "" {
		return string(b)
	}
	return g.prefix + "_" + string(b)
}

// Execute runs q and returns one window of its hits, at most index.MaxResultWindow.
func (g *Gateway) Execute(ctx context.Context, q *index.Query) (*Result, error) {
	resp, err := g.search(ctx, q, &index.Request{Index: g.IndexName(q.Backing())})
	if err != nil {
		return nil, err
	}
	return &Result{Total: resp.Total, Hits: resp.Hits}, nil
}

// ExecuteAll runs q without pagination and returns every hit. Id lists longer
// than the result window are fetched in chunks; other queries that overflow
// the window are re-read page by page inside a point-in-time view.
func (g *Gateway) ExecuteAll(ctx context.Context, q *index.Query) (*Result, error) {
	q = q.Clone().Paginate(1, index.MaxResultWindow)
	if ids, ok := q.IDs(); ok && len(ids) > index.MaxResultWindow {
		return g.executeChunked(ctx, q, idset.Dedupe(ids))
	}

	res, err := g.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) >= res.Total {
		return res, nil
	}
	return g.scan(ctx, q)
}

// ExecuteAllStrict is ExecuteAll for queries that must match something.
func (g *Gateway) ExecuteAllStrict(ctx context.Context, q *index.Query) (*Result, error) {
	res, err := g.ExecuteAll(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, inconsistency(q)
	}
	return res, nil
}

func (g *Gateway) executeChunked(ctx context.Context, q *index.Query, ids []int64) (*Result, error) {
	out := &Result{Hits: make([]index.Hit, 0, len(ids))}
	for chunk := range slices.Chunk(ids, index.MaxResultWindow) {
		res, err := g.Execute(ctx, withIDs(q, chunk))
		if err != nil {
			return nil, err
		}
		out.Total += res.Total
		out.Hits = append(out.Hits, res.Hits...)
	}
	return out, nil
}

// scan reads every hit of q in shard doc order, one window per request.
func (g *Gateway) scan(ctx context.Context, q *index.Query) (_ *Result, err error) {
	name := g.IndexName(q.Backing())
	pit, err := g.backend.OpenPointInTime(ctx, name, pitKeepAlive)
	if err != nil {
		body, _ := json.Marshal(q)
		return nil, domain.NewSearchBackendError(string(body), err)
	}
	defer func() {
		if cerr := g.backend.ClosePointInTime(context.WithoutCancel(ctx), pit); cerr != nil && err == nil {
			err = fmt.Errorf("close point in time of %s: %w", name, cerr)
		}
	}()

	out := &Result{}
	var after []json.RawMessage
	for {
		page := q.Clone().SortBy(index.ShardDoc, false).InPointInTime(pit, pitKeepAlive).SearchAfter(after)
		resp, err := g.search(ctx, page, &index.Request{PointInTime: pit})
		if err != nil {
			return nil, err
		}
		if resp.PointInTime != "" {
			pit = resp.PointInTime
		}
		out.Total = resp.Total
		out.Hits = append(out.Hits, resp.Hits...)

		if len(resp.Hits) < index.MaxResultWindow || len(out.Hits) >= resp.Total {
			return out, nil
		}
		after = resp.Hits[len(resp.Hits)-1].Sort
		if len(after) == 0 {
			body, _ := json.Marshal(page)
			return nil, domain.NewSearchBackendError(string(body), fmt.Errorf("%w: hit without sort values", index.ErrBadResponse))
		}
	}
}

// search serializes q into req and sends it.
func (g *Gateway) search(ctx context.Context, q *index.Query, req *index.Request) (*index.Response, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	req.Backing = q.Backing()
	req.Body = body

	resp, err := g.backend.Search(ctx, req)
	if err != nil {
		return nil, domain.NewSearchBackendError(string(body), err)
	}
	return resp, nil
}

// withIDs copies q with its id list replaced by ids.
func withIDs(q *index.Query, ids []int64) *index.Query {
	c := index.MustQuery(q.Backing()).ByIDs(ids).Paginate(1, index.MaxResultWindow)
	if q.IsMetadataOnly() {
		c.MetadataOnly()
	}
	return c
}

// ExecuteStrict is Execute for queries that must match something.
// Zero hits yield ErrBackendInconsistency.
func (g *Gateway) ExecuteStrict(ctx context.Context, q *index.Query) (*Result, error) {
	res, err := g.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, inconsistency(q)
	}
	return res, nil
}

// ExecuteForIDs runs a metadata-only copy of q and returns every deduplicated hit id.
func (g *Gateway) ExecuteForIDs(ctx context.Context, q *index.Query) ([]int64, error) {
	idq := q.Clone().MetadataOnly()
	res, err := g.ExecuteAll(ctx, idq)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := ParseID(h.ID)
		if err != nil {
			body, _ := json.Marshal(idq)
			return nil, domain.NewSearchBackendError(string(body), err)
		}
		ids = append(ids, id)
	}
	return idset.Dedupe(ids), nil
}

// ExecuteForIDsStrict is ExecuteForIDs for queries that must match something.
func (g *Gateway) ExecuteForIDsStrict(ctx context.Context, q *index.Query) ([]int64, error) {
	ids, err := g.ExecuteForIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, inconsistency(q)
	}
	return ids, nil
}

func inconsistency(q *index.Query) error {
	body, _ := json.Marshal(q)
	return fmt.Errorf("%w: no hits in %s for %s", domain.ErrBackendInconsistency, q.Backing(), body)
}

// ParseID converts a hit `_id` into a numeric identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: hit id %q", index.ErrBadResponse, raw)
	}
	return id, nil
}

// Decode parses hit sources into typed records, assigning each its hit id.
func Decode[T any, P interface {
	*T
	SetID(int64)
}](hits []index.Hit) ([]T, error) {
	out := make([]T, len(hits))
	for i, h := range hits {
		id, err := ParseID(h.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSearchBackend, err)
		}
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &out[i]); err != nil {
				return nil, fmt.Errorf("%w: decode hit %s: %w", domain.ErrSearchBackend, h.ID, err)
			}
		}
		P(&out[i]).SetID(id)
	}
	return out, nil
}
