package elastic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// Compile-time checks.
var (
	_ index.Backend = (*Searcher)(nil)
	_ index.Pinger  = (*Searcher)(nil)
)

// Config holds the Elasticsearch connection settings.
type Config struct {
	Addresses          []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	// Transport overrides the HTTP transport (tests, custom pooling).
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Searcher implements index.Searcher over the Elasticsearch REST API.
type Searcher struct {
	client *elasticsearch.Client
	logger *zap.Logger
}

// NewSearcher creates an Elasticsearch-backed searcher.
func NewSearcher(cfg Config) (*Searcher, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}

	transport := cfg.Transport
	if transport == nil && cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // opt-in for self-signed dev clusters
			},
		}
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{client: client, logger: logger}, nil
}

// Search runs one _search call and decodes its hits. Point-in-time
// searches carry no index; the view in the body names it.
func (s *Searcher) Search(ctx context.Context, req *index.Request) (*index.Response, error) {
	backing := string(req.Backing)
	start := time.Now()

	opts := []func(*esapi.SearchRequest){
		s.client.Search.WithContext(ctx),
		s.client.Search.WithBody(bytes.NewReader(req.Body)),
	}
	if req.Index != "" {
		opts = append(opts, s.client.Search.WithIndex(req.Index))
	}
	res, err := s.client.Search(opts...)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(backing, "error").Inc()
		return nil, &index.Error{Op: index.OpSearch, Err: err}
	}
	defer res.Body.Close()

	metrics.SearchRequestDuration.WithLabelValues(backing).Observe(time.Since(start).Seconds())

	if res.IsError() {
		metrics.SearchRequestsTotal.WithLabelValues(backing, "error").Inc()
		body, _ := io.ReadAll(res.Body)
		s.logger.Debug("search rejected",
			zap.String("index", req.Index),
			zap.Int("status", res.StatusCode),
			zap.ByteString("body", body),
		)
		if res.StatusCode == http.StatusNotFound {
			return nil, &index.Error{Op: index.OpSearch, Err: fmt.Errorf("%s: %w", req.Index, index.ErrIndexNotFound)}
		}
		return nil, &index.Error{Op: index.OpSearch, Err: fmt.Errorf("status %s: %s", res.Status(), body)}
	}

	var payload searchResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(backing, "error").Inc()
		return nil, &index.Error{Op: index.OpSearch, Err: fmt.Errorf("%w: %w", index.ErrBadResponse, err)}
	}

	metrics.SearchRequestsTotal.WithLabelValues(backing, "success").Inc()

	total, err := payload.Hits.Total.value()
	if err != nil {
		return nil, &index.Error{Op: index.OpSearch, Err: err}
	}

	out := &index.Response{
		Total:       total,
		Hits:        make([]index.Hit, len(payload.Hits.Hits)),
		PointInTime: payload.PitID,
	}
	for i, h := range payload.Hits.Hits {
		out.Hits[i] = index.Hit{ID: h.ID, Source: h.Source, Sort: h.Sort}
	}
	return out, nil
}

// OpenPointInTime opens a view of indexName for deep pagination.
func (s *Searcher) OpenPointInTime(ctx context.Context, indexName string, keepAlive time.Duration) (string, error) {
	res, err := s.client.OpenPointInTime(
		[]string{indexName},
		formatKeepAlive(keepAlive),
		s.client.OpenPointInTime.WithContext(ctx),
	)
	if err != nil {
		return "", &index.Error{Op: index.OpOpenPIT, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusNotFound {
			return "", &index.Error{Op: index.OpOpenPIT, Err: fmt.Errorf("%s: %w", indexName, index.ErrIndexNotFound)}
		}
		return "", &index.Error{Op: index.OpOpenPIT, Err: fmt.Errorf("status %s: %s", res.Status(), body)}
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil || payload.ID == "" {
		return "", &index.Error{Op: index.OpOpenPIT, Err: fmt.Errorf("%w: no point in time id", index.ErrBadResponse)}
	}
	return payload.ID, nil
}

// ClosePointInTime releases a view. An already expired view is not an error.
func (s *Searcher) ClosePointInTime(ctx context.Context, id string) error {
	body, err := json.Marshal(map[string]string{"id": id})
	if err != nil {
		return &index.Error{Op: index.OpClosePIT, Err: err}
	}
	res, err := s.client.ClosePointInTime(
		s.client.ClosePointInTime.WithContext(ctx),
		s.client.ClosePointInTime.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return &index.Error{Op: index.OpClosePIT, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return &index.Error{Op: index.OpClosePIT, Err: fmt.Errorf("status %s", res.Status())}
	}
	return nil
}

func formatKeepAlive(d time.Duration) string {
	return strconv.FormatInt(max(int64(d/time.Second), 1), 10) + "s"
}

// Ping checks cluster reachability.
func (s *Searcher) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &index.Error{Op: index.OpPing, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &index.Error{Op: index.OpPing, Err: fmt.Errorf("status %s", res.Status())}
	}
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Searcher) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search index: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

type searchResponse struct {
	PitID string `json:"pit_id"`
	Hits  struct {
		Total totalHits `json:"total"`
		Hits  []struct {
			ID     string            `json:"_id"`
			Source json.RawMessage   `json:"_source"`
			Sort   []json.RawMessage `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// totalHits accepts both the object form {"value": n} and the legacy integer form.
type totalHits json.RawMessage

func (t *totalHits) UnmarshalJSON(data []byte) error {
	*t = append((*t)[:0], data...)
	return nil
}

func (t totalHits) value() (int, error) {
	if len(t) == 0 || string(t) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(t, &n); err == nil {
		return n, nil
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(t, &obj); err != nil {
		return 0, errors.Join(index.ErrBadResponse, err)
	}
	return obj.Value, nil
}
