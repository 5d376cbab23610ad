package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func entryIDs(p pageResponse) []int64 {
	ids := make([]int64, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.ID
	}
	return ids
}

func TestFilterPages_TextFilter(t *testing.T) {
	h := newCatalogRouter(t)
	rr := do(t, h, http.MethodPost, "/filters/pages", filterBody(map[string]string{"text": `"alpha"`}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	resp := decode[filterPagesResponse](t, rr.Body.Bytes())
	if resp.TransactionCount != 2 || !slices.Equal(resp.TransactionIDs, []int64{100, 101}) {
		t.Errorf("count = %d, ids = %v", resp.TransactionCount, resp.TransactionIDs)
	}
	if len(resp.FilterPages) != len(facet.All()) {
		t.Fatalf("filter_pages keys = %d, want %d", len(resp.FilterPages), len(facet.All()))
	}
	inst, ok := resp.FilterPages["institution"]
	if !ok {
		t.Fatal("filter_pages keyed by machine name")
	}
	if len(inst.Entries) != 1 || inst.Entries[0].ID != 10 || inst.Entries[0].TransactionCount != 2 {
		t.Errorf("institution page = %+v", inst)
	}
}

func TestFilterPages_EmptyFilterWireForm(t *testing.T) {
	h := newCatalogRouter(t)
	rr := do(t, h, http.MethodPost, "/filters/pages", emptyFilterBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["transaction_ids"]) != "[]" {
		t.Errorf("transaction_ids = %s, want []", raw["transaction_ids"])
	}
	resp := decode[filterPagesResponse](t, rr.Body.Bytes())
	if resp.TransactionCount != 5 {
		t.Errorf("transaction_count = %d, want 5", resp.TransactionCount)
	}
}

func TestFilterPages_QueryParameters(t *testing.T) {
	m := &mockResolver{}
	h := newMockRouter(t, m, nil)

	rr := do(t, h, http.MethodPost, "/filters/pages?page_size=5&user_page=3", emptyFilterBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if len(m.reqs) != len(facet.All()) {
		t.Fatalf("requests = %d, want one per facet type", len(m.reqs))
	}
	for _, req := range m.reqs {
		want := 1
		if req.Type == facet.User {
			want = 3
		}
		if req.PageNumber != want || req.PageSize != 5 {
			t.Errorf("%s: page = %d size = %d", req.Type.MachineName(), req.PageNumber, req.PageSize)
		}
	}
}

func TestFilterPages_BadRequests(t *testing.T) {
	h := newCatalogRouter(t)

	tests := []struct {
		name   string
		target string
		body   string
		code   string
		key    string
	}{
		{"empty body", "/filters/pages", "", codeMalformedFilter, ""},
		{"not json", "/filters/pages", "{", codeMalformedFilter, ""},
		{"missing key", "/filters/pages", `{"text":""}`, codeMalformedFilter, "institution"},
		{"unexpected key", "/filters/pages", `{"group":[],"text":""}`, codeMalformedFilter, "group"},
		{"bad page size", "/filters/pages?page_size=0", emptyFilterBody, codeInvalidPage, ""},
		{"page size above max", "/filters/pages?page_size=101", emptyFilterBody, codeInvalidPage, ""},
		{"bad facet page", "/filters/pages?proposal_page=0", emptyFilterBody, codeInvalidPage, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tc.target, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rr.Code, rr.Body)
			}
			resp := decode[errorResponse](t, rr.Body.Bytes())
			if resp.Code != tc.code || resp.Key != tc.key {
				t.Errorf("error = %+v, want code %q key %q", resp, tc.code, tc.key)
			}
		})
	}
}

func TestFacetPage(t *testing.T) {
	h := newCatalogRouter(t)
	body := filterBody(map[string]string{"institution": "[11]"})

	rr := do(t, h, http.MethodPost, "/filters/instrument/pages/1?page_size=1", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	page := decode[pageResponse](t, rr.Body.Bytes())
	if !slices.Equal(entryIDs(page), []int64{20}) || page.TotalCount != 2 || !page.HasMore {
		t.Errorf("page = %+v", page)
	}
}

func TestFacetPage_Errors(t *testing.T) {
	h := newCatalogRouter(t)

	rr := do(t, h, http.MethodPost, "/filters/group/pages/1", emptyFilterBody)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown type: status = %d, want 404", rr.Code)
	}
	if resp := decode[errorResponse](t, rr.Body.Bytes()); resp.Code != codeFacetTypeNotFound {
		t.Errorf("unknown type: code = %q", resp.Code)
	}

	for _, p := range []string{"0", "-1", "abc"} {
		rr = do(t, h, http.MethodPost, "/filters/user/pages/"+p, emptyFilterBody)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("page %q: status = %d, want 400", p, rr.Code)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"backend", domain.NewSearchBackendError(`{"query":{}}`, errors.New("connection refused")), http.StatusBadGateway, codeSearchBackend},
		{"inconsistency", domain.ErrBackendInconsistency, http.StatusInternalServerError, codeBackendInconsistency},
		{"not found", domain.ErrNotFound, http.StatusNotFound, codeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newMockRouter(t, &mockResolver{err: tc.err}, nil)
			rr := do(t, h, http.MethodPost, "/filters/pages", emptyFilterBody)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			resp := decode[errorResponse](t, rr.Body.Bytes())
			if resp.Code != tc.code {
				t.Errorf("code = %q, want %q", resp.Code, tc.code)
			}
			if tc.code == codeSearchBackend && resp.Message != domain.ErrSearchBackend.Error() {
				t.Errorf("backend details leaked: %q", resp.Message)
			}
		})
	}
}

func TestTransactionPages(t *testing.T) {
	h := newCatalogRouter(t)
	body := filterBody(map[string]string{"instrument_type": "[7]"})

	rr := do(t, h, http.MethodPost, "/transactions/pages/1?page_size=3", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	resp := decode[transactionPageResponse](t, rr.Body.Bytes())
	ids := make([]int64, len(resp.Transactions))
	for i, tx := range resp.Transactions {
		ids[i] = tx.ID
	}
	if !slices.Equal(ids, []int64{104, 103, 101}) || resp.TotalCount != 4 || !resp.HasMore {
		t.Errorf("ids = %v, total = %d, has_more = %v", ids, resp.TotalCount, resp.HasMore)
	}
	if tx := resp.Transactions[1]; tx.Instrument != 20 || tx.Proposal != 31 || tx.Submitter != 3 {
		t.Errorf("transaction 103 = %+v", tx)
	}

	rr = do(t, h, http.MethodPost, "/transactions/pages/0", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("page 0: status = %d, want 400", rr.Code)
	}
}

func TestTransactionFiles(t *testing.T) {
	h := newCatalogRouter(t)

	rr := do(t, h, http.MethodGet, "/transactions/100/files", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	resp := decode[fileListResponse](t, rr.Body.Bytes())
	if resp.TransactionID != 100 || len(resp.Files) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Files[0].ID != 201 || resp.Files[1].ID != 200 {
		t.Errorf("files not ordered by subdir then name: %+v", resp.Files)
	}

	rr = do(t, h, http.MethodGet, "/transactions/101/files", "")
	if rr.Code != http.StatusOK || len(decode[fileListResponse](t, rr.Body.Bytes()).Files) != 0 {
		t.Errorf("no files: status = %d, body = %s", rr.Code, rr.Body)
	}

	if rr = do(t, h, http.MethodGet, "/transactions/999/files", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown transaction: status = %d, want 404", rr.Code)
	}
	if rr = do(t, h, http.MethodGet, "/transactions/abc/files", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name   string
		index  pingerFunc
		cache  pingerFunc
		status int
		want   string
	}{
		{"healthy", ok, ok, http.StatusOK, string(healthuc.Healthy)},
		{"cache down", ok, down, http.StatusOK, string(healthuc.Degraded)},
		{"index down", down, ok, http.StatusServiceUnavailable, string(healthuc.Unhealthy)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newMockRouter(t, &mockResolver{}, healthuc.New(tc.index, tc.cache))
			rr := do(t, h, http.MethodGet, "/health", "")
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			resp := decode[healthResponse](t, rr.Body.Bytes())
			if resp.Status != tc.want || len(resp.Checks) != 2 {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newCatalogRouter(t)
	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
