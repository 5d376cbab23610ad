package index

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
)

// MaxResultWindow is the default page size; it matches the index's result window
// so an unpaginated query returns everything the backend is willing to return.
const MaxResultWindow = 10000

// ShardDoc is the cheapest total order inside a point-in-time view.
const ShardDoc = "_shard_doc"

type termsClause struct {
	field  string
	values []any
}

type sortClause struct {
	field string
	desc  bool
}

// Query is a fluent builder for a search against one backing index type.
type Query struct {
	backing      facet.Backing
	terms        []termsClause
	ids          []int64
	byIDs        bool
	exclude      []int64
	text         string
	page         int
	size         int
	metadataOnly bool
	sort         []sortClause
	pit          string
	keepAlive    time.Duration
	searchAfter  []json.RawMessage
}

// NewQuery starts a query against a backing index type.
func NewQuery(backing facet.Backing) (*Query, error) {
	if !backing.IsKnown() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidType, backing)
	}
	return &Query{backing: backing, page: 1, size: MaxResultWindow}, nil
}

// MustQuery calls NewQuery and panics on error.
func MustQuery(backing facet.Backing) *Query {
	q, err := NewQuery(backing)
	if err != nil {
		panic(err)
	}
	return q
}

// Backing returns the index type the query targets.
func (q *Query) Backing() facet.Backing { return q.backing }

// EqualsOrIn matches documents whose field holds any of values.
// Repeated calls on one field grow the accepted set.
func (q *Query) EqualsOrIn(field string, values ...any) *Query {
	for i := range q.terms {
		if q.terms[i].field == field {
			q.terms[i].values = appendUnique(q.terms[i].values, values)
			return q
		}
	}
	q.terms = append(q.terms, termsClause{field: field, values: appendUnique(nil, values)})
	return q
}

// ByIDs restricts the result to ids. When set, ids alone determine the result:
// field filters, text and exclusions are not serialized.
func (q *Query) ByIDs(ids []int64) *Query {
	q.byIDs = true
	q.ids = append(q.ids, ids...)
	return q
}

// ExcludeIDs drops documents with the given ids.
func (q *Query) ExcludeIDs(ids []int64) *Query {
	q.exclude = append(q.exclude, ids...)
	return q
}

// ByText adds a full-text match across all fields.
func (q *Query) ByText(text string) *Query {
	q.text = text
	return q
}

// Paginate selects a 1-based page of the given size.
func (q *Query) Paginate(page, size int) *Query {
	if page < 1 {
		page = 1
	}
	if size < 0 {
		size = MaxResultWindow
	}
	q.page = page
	q.size = size
	return q
}

// MetadataOnly suppresses document sources so only identifiers come back.
func (q *Query) MetadataOnly() *Query {
	q.metadataOnly = true
	return q
}

// IsMetadataOnly reports whether sources are suppressed.
func (q *Query) IsMetadataOnly() bool { return q.metadataOnly }

// SortBy orders results by field.
func (q *Query) SortBy(field string, desc bool) *Query {
	q.sort = append(q.sort, sortClause{field: field, desc: desc})
	return q
}

// IDs returns the ids set by ByIDs and whether ByIDs was called.
func (q *Query) IDs() ([]int64, bool) { return slices.Clone(q.ids), q.byIDs }

// InPointInTime runs the query inside the view id, kept open for keepAlive.
func (q *Query) InPointInTime(id string, keepAlive time.Duration) *Query {
	q.pit = id
	q.keepAlive = keepAlive
	return q
}

// SearchAfter resumes after the hit with the given sort values.
func (q *Query) SearchAfter(values []json.RawMessage) *Query {
	q.searchAfter = slices.Clone(values)
	return q
}

// Clone returns an independent copy of the query.
func (q *Query) Clone() *Query {
	c := *q
	c.terms = make([]termsClause, len(q.terms))
	for i, t := range q.terms {
		c.terms[i] = termsClause{field: t.field, values: slices.Clone(t.values)}
	}
	c.ids = slices.Clone(q.ids)
	c.exclude = slices.Clone(q.exclude)
	c.sort = slices.Clone(q.sort)
	c.searchAfter = slices.Clone(q.searchAfter)
	return &c
}

// Body returns the request body in the backend's query DSL.
func (q *Query) Body() map[string]any {
	body := map[string]any{
		"from":             (q.page - 1) * q.size,
		"size":             q.size,
		"query":            q.clause(),
		"track_total_hits": true,
	}
	if q.metadataOnly {
		body["_source"] = false
	}
	if len(q.sort) > 0 {
		sorts := make([]any, len(q.sort))
		for i, s := range q.sort {
			order := "asc"
			if s.desc {
				order = "desc"
			}
			sorts[i] = map[string]any{s.field: map[string]any{"order": order}}
		}
		body["sort"] = sorts
	}
	if q.pit != "" {
		body["pit"] = map[string]any{"id": q.pit, "keep_alive": keepAlive(q.keepAlive)}
	}
	if len(q.searchAfter) > 0 {
		body["search_after"] = q.searchAfter
	}
	return body
}

// MarshalJSON serializes Body. Map keys are emitted sorted, so output is deterministic.
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Body())
}

// clause applies the precedence ids > exclusions > filters and text.
func (q *Query) clause() map[string]any {
	if q.byIDs {
		return map[string]any{"ids": map[string]any{"values": idStrings(q.ids)}}
	}

	boolQuery := map[string]any{}
	if len(q.exclude) > 0 {
		boolQuery["must_not"] = []any{
			map[string]any{"ids": map[string]any{"values": idStrings(q.exclude)}},
		}
	}
	if len(q.terms) > 0 {
		filters := make([]any, len(q.terms))
		for i, t := range q.terms {
			filters[i] = map[string]any{"terms": map[string]any{t.field: t.values}}
		}
		boolQuery["filter"] = filters
	}
	if q.text != "" {
		boolQuery["must"] = map[string]any{"query_string": map[string]any{"query": q.text}}
	}
	if len(boolQuery) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": boolQuery}
}

// keepAlive renders a duration in the backend's time unit syntax.
func keepAlive(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}

func idStrings(ids []int64) []string {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

func appendUnique(dst, values []any) []any {
	if dst == nil {
		dst = []any{}
	}
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
