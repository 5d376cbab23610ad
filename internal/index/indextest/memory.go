// Package indextest provides an in-memory index.Backend that evaluates the
// query DSL emitted by index.Query, point-in-time views included. Use
// NewMemory in tests.
package indextest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/facetdex/internal/index"
)

type doc struct {
	id     int64
	seq    int
	raw    json.RawMessage
	source map[string]any
}

// Memory holds documents per index name and answers searches against them.
// Like the real backend it returns at most index.MaxResultWindow hits per call.
type Memory struct {
	mu       sync.Mutex
	indices  map[string][]doc
	pits     map[string]string
	nextPIT  int
	requests []index.Request
	err      error
}

var _ index.Backend = (*Memory)(nil)

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{indices: make(map[string][]doc), pits: make(map[string]string)}
}

// Add stores source under id in the named index. Panics on unmarshalable sources.
func (m *Memory) Add(indexName string, id int64, source any) *Memory {
	raw, err := json.Marshal(source)
	if err != nil {
		panic(fmt.Sprintf("indextest: marshal source: %v", err))
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		panic(fmt.Sprintf("indextest: source must be an object: %v", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	seq := len(m.indices[indexName])
	m.indices[indexName] = append(m.indices[indexName], doc{id: id, seq: seq, raw: raw, source: fields})
	return m
}

// OpenPointInTime opens a view of indexName.
func (m *Memory) OpenPointInTime(ctx context.Context, indexName string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.nextPIT++
	id := "pit-" + strconv.Itoa(m.nextPIT)
	m.pits[id] = indexName
	return id, nil
}

// ClosePointInTime closes a view opened by OpenPointInTime.
func (m *Memory) ClosePointInTime(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pits[id]; !ok {
		return fmt.Errorf("indextest: unknown point in time %q", id)
	}
	delete(m.pits, id)
	return nil
}

// OpenPointInTimes reports how many views are still open.
func (m *Memory) OpenPointInTimes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pits)
}

// FailWith makes every subsequent search return err.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Ping reports the error set by FailWith, if any.
func (m *Memory) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Requests returns the requests received so far.
func (m *Memory) Requests() []index.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

type body struct {
	From        int               `json:"from"`
	Size        *int              `json:"size"`
	Query       map[string]any    `json:"query"`
	Source      *bool             `json:"_source"`
	Sort        []map[string]any  `json:"sort"`
	SearchAfter []json.RawMessage `json:"search_after"`
	PIT         *struct {
		ID string `json:"id"`
	} `json:"pit"`
}

// Search evaluates the request body against the stored documents.
func (m *Memory) Search(ctx context.Context, req *index.Request) (*index.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b body
	if err := json.Unmarshal(req.Body, &b); err != nil {
		return nil, fmt.Errorf("indextest: bad body: %w", err)
	}

	m.mu.Lock()
	m.requests = append(m.requests, *req)
	failure := m.err
	indexName := req.Index
	if b.PIT != nil {
		indexName = m.pits[b.PIT.ID]
	}
	docs := slices.Clone(m.indices[indexName])
	m.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	if b.PIT != nil {
		if req.Index != "" {
			return nil, fmt.Errorf("indextest: point in time search must not name an index, got %q", req.Index)
		}
		if indexName == "" {
			return nil, fmt.Errorf("indextest: unknown point in time %q", b.PIT.ID)
		}
	}

	match, err := compile(b.Query)
	if err != nil {
		return nil, err
	}
	matched := make([]doc, 0, len(docs))
	for _, d := range docs {
		if match(d) {
			matched = append(matched, d)
		}
	}
	sortDocs(matched, b.Sort)
	total := len(matched)

	if len(b.SearchAfter) > 0 {
		if matched, err = after(matched, b.Sort, b.SearchAfter); err != nil {
			return nil, err
		}
	}

	size := index.MaxResultWindow
	if b.Size != nil {
		size = min(*b.Size, index.MaxResultWindow)
	}
	from := min(b.From, len(matched))
	window := matched[from:min(from+size, len(matched))]

	res := &index.Response{Total: total, Hits: make([]index.Hit, len(window))}
	if b.PIT != nil {
		res.PointInTime = b.PIT.ID
	}
	for i, d := range window {
		res.Hits[i] = index.Hit{ID: strconv.FormatInt(d.id, 10), Sort: sortValues(d, b.Sort)}
		if b.Source == nil || *b.Source {
			res.Hits[i].Source = d.raw
		}
	}
	return res, nil
}

// predicate reports whether a document matches a compiled query clause.
type predicate func(d doc) bool

func compile(q map[string]any) (predicate, error) {
	if len(q) != 1 {
		return nil, fmt.Errorf("indextest: query must have one clause, got %v", q)
	}
	for kind, arg := range q {
		clause, _ := arg.(map[string]any)
		switch kind {
		case "match_all":
			return func(doc) bool { return true }, nil
		case "ids":
			values, _ := clause["values"].([]any)
			set := valueSet(values)
			return func(d doc) bool {
				_, ok := set[strconv.FormatInt(d.id, 10)]
				return ok
			}, nil
		case "terms":
			for field, v := range clause {
				values, _ := v.([]any)
				set := valueSet(values)
				return func(d doc) bool { return fieldMatches(d.source[field], set) }, nil
			}
			return func(doc) bool { return false }, nil
		case "query_string":
			text, _ := clause["query"].(string)
			text = strings.ToLower(text)
			return func(d doc) bool { return textMatches(d.source, text) }, nil
		case "bool":
			return compileBool(clause)
		default:
			return nil, fmt.Errorf("indextest: unsupported clause %q", kind)
		}
	}
	return nil, fmt.Errorf("indextest: empty query")
}

func compileBool(clause map[string]any) (predicate, error) {
	var mustNot, must []predicate
	for _, sub := range asClauses(clause["must_not"]) {
		p, err := compile(sub)
		if err != nil {
			return nil, err
		}
		mustNot = append(mustNot, p)
	}
	for _, key := range []string{"filter", "must"} {
		for _, sub := range asClauses(clause[key]) {
			p, err := compile(sub)
			if err != nil {
				return nil, err
			}
			must = append(must, p)
		}
	}
	return func(d doc) bool {
		for _, p := range mustNot {
			if p(d) {
				return false
			}
		}
		for _, p := range must {
			if !p(d) {
				return false
			}
		}
		return true
	}, nil
}

// asClauses accepts a single clause object or a list of them.
func asClauses(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, c := range t {
			if m, ok := c.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func fieldMatches(field any, set map[string]struct{}) bool {
	if list, ok := field.([]any); ok {
		for _, item := range list {
			if _, ok := set[fmt.Sprint(item)]; ok {
				return true
			}
		}
		return false
	}
	if field == nil {
		return false
	}
	_, ok := set[fmt.Sprint(field)]
	return ok
}

func valueSet(values []any) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[fmt.Sprint(v)] = struct{}{}
	}
	return set
}

func textMatches(source map[string]any, text string) bool {
	for _, v := range source {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), text) {
			return true
		}
	}
	return false
}

func sortDocs(docs []doc, sorts []map[string]any) {
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b doc) int {
		for _, s := range sorts {
			for field, opts := range s {
				order, _ := opts.(map[string]any)["order"].(string)
				var c int
				if field == index.ShardDoc {
					c = a.seq - b.seq
				} else {
					c = strings.Compare(fmt.Sprint(fieldValue(a, field)), fmt.Sprint(fieldValue(b, field)))
				}
				if order == "desc" {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
		}
		return 0
	})
}

// fieldValue reads a source field; a keyword subfield reads its parent.
func fieldValue(d doc, field string) any {
	return d.source[strings.TrimSuffix(field, ".keyword")]
}

// after drops the documents up to and including the search_after key.
// Only a single ascending shard doc sort is supported.
func after(docs []doc, sorts []map[string]any, values []json.RawMessage) ([]doc, error) {
	if len(sorts) != 1 || len(values) != 1 {
		return nil, fmt.Errorf("indextest: search_after needs exactly one %s sort", index.ShardDoc)
	}
	if _, ok := sorts[0][index.ShardDoc]; !ok {
		return nil, fmt.Errorf("indextest: search_after needs a %s sort, got %v", index.ShardDoc, sorts[0])
	}
	seq, err := strconv.Atoi(string(values[0]))
	if err != nil {
		return nil, fmt.Errorf("indextest: bad search_after value %s: %w", values[0], err)
	}
	i, _ := slices.BinarySearchFunc(docs, seq+1, func(d doc, target int) int { return d.seq - target })
	return docs[i:], nil
}

// sortValues reports the sort key of d the way the backend does in hit.sort.
func sortValues(d doc, sorts []map[string]any) []json.RawMessage {
	if len(sorts) == 0 {
		return nil
	}
	out := make([]json.RawMessage, 0, len(sorts))
	for _, s := range sorts {
		for field := range s {
			if field == index.ShardDoc {
				out = append(out, json.RawMessage(strconv.Itoa(d.seq)))
				continue
			}
			raw, _ := json.Marshal(fieldValue(d, field))
			out = append(out, raw)
		}
	}
	return out
}
