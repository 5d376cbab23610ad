package chi

import (
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/usecase/resolver"
)

// Error codes of errorResponse.
const (
	codeBadRequest           = "bad_request"
	codeUnauthorized         = "unauthorized"
	codeMalformedFilter      = "malformed_filter"
	codeInvalidPage          = "invalid_page"
	codeFacetTypeNotFound    = "facet_type_not_found"
	codeNotFound             = "not_found"
	codeSearchBackend        = "search_backend_error"
	codeBackendInconsistency = "backend_inconsistency"
	codeInternal             = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

type pageResponse struct {
	Entries    []facet.Entry `json:"entries"`
	PageNumber int           `json:"page_number"`
	PageSize   int           `json:"page_size"`
	TotalCount int           `json:"total_count"`
	HasMore    bool          `json:"has_more"`
}

type filterPagesResponse struct {
	TransactionCount int                     `json:"transaction_count"`
	FilterPages      map[string]pageResponse `json:"filter_pages"`
	TransactionIDs   []int64                 `json:"transaction_ids"`
}

type transactionResponse struct {
	ID         int64  `json:"id"`
	Instrument int64  `json:"instrument"`
	Proposal   int64  `json:"proposal"`
	Submitter  int64  `json:"submitter"`
	Created    string `json:"created"`
	FileCount  int    `json:"file_count"`
}

type transactionPageResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	PageNumber   int                   `json:"page_number"`
	PageSize     int                   `json:"page_size"`
	TotalCount   int                   `json:"total_count"`
	HasMore      bool                  `json:"has_more"`
}

type fileResponse struct {
	ID      int64  `json:"id"`
	Subdir  string `json:"subdir"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Mtime   string `json:"mtime,omitempty"`
	Hashsum string `json:"hashsum,omitempty"`
}

type fileListResponse struct {
	TransactionID int64          `json:"transaction_id"`
	Files         []fileResponse `json:"files"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func pageToResponse(p facet.Page) pageResponse {
	entries := p.Entries
	if entries == nil {
		entries = []facet.Entry{}
	}
	return pageResponse{
		Entries:    entries,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		HasMore:    p.HasMore(),
	}
}

func filterPagesToResponse(res resolver.Result) filterPagesResponse {
	pages := make(map[string]pageResponse, len(res.Pages))
	for ft, p := range res.Pages {
		pages[ft.MachineName()] = pageToResponse(p)
	}
	ids := res.TransactionIDs
	if ids == nil {
		ids = []int64{}
	}
	return filterPagesResponse{
		TransactionCount: res.TransactionCount,
		FilterPages:      pages,
		TransactionIDs:   ids,
	}
}

func transactionPageToResponse(p record.TransactionPage) transactionPageResponse {
	items := make([]transactionResponse, len(p.Transactions))
	for i, t := range p.Transactions {
		items[i] = transactionResponse{
			ID:         t.ID,
			Instrument: t.Instrument,
			Proposal:   t.Proposal,
			Submitter:  t.Submitter,
			Created:    t.Created,
			FileCount:  t.FileCount,
		}
	}
	return transactionPageResponse{
		Transactions: items,
		PageNumber:   p.PageNumber,
		PageSize:     p.PageSize,
		TotalCount:   p.TotalCount,
		HasMore:      p.PageNumber*p.PageSize < p.TotalCount,
	}
}

func fileToResponse(f record.File) fileResponse {
	return fileResponse{
		ID:      f.ID,
		Subdir:  f.Subdir,
		Name:    f.Name,
		Size:    f.Size,
		Mtime:   f.Mtime,
		Hashsum: f.Hashsum,
	}
}
