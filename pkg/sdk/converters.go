package facetdex

import (
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/usecase/resolver"
)

func toInternalFacetType(ft FacetType) (facet.Type, error) {
	t, err := facet.Parse(string(ft))
	if err != nil {
		return 0, domain.NewUnexpectedKey(string(ft))
	}
	return t, nil
}

func toInternalFilter(f Filter) (filter.Filter, error) {
	sel := make(map[facet.Type][]int64, len(facet.All()))
	for _, t := range facet.All() {
		sel[t] = []int64{}
	}
	for ft, ids := range f.IDs {
		t, err := toInternalFacetType(ft)
		if err != nil {
			return filter.Filter{}, err
		}
		sel[t] = ids
	}
	return filter.New(f.Text, sel)
}

func fromInternalPage(p facet.Page) Page {
	entries := make([]Entry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = Entry{ID: e.ID, DisplayName: e.DisplayName, TransactionCount: e.TransactionCount}
	}
	return Page{
		Entries:    entries,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		HasMore:    p.HasMore(),
	}
}

func fromInternalResult(res resolver.Result) Result {
	pages := make(map[FacetType]Page, len(res.Pages))
	for t, p := range res.Pages {
		pages[FacetType(t.MachineName())] = fromInternalPage(p)
	}
	ids := res.TransactionIDs
	if ids == nil {
		ids = []int64{}
	}
	return Result{TransactionCount: res.TransactionCount, Pages: pages, TransactionIDs: ids}
}

func fromInternalTransactionPage(p record.TransactionPage) TransactionPage {
	txs := make([]Transaction, len(p.Transactions))
	for i, t := range p.Transactions {
		txs[i] = Transaction{
			ID:         t.ID,
			Instrument: t.Instrument,
			Proposal:   t.Proposal,
			Submitter:  t.Submitter,
			Created:    t.Created,
			FileCount:  t.FileCount,
		}
	}
	return TransactionPage{
		Transactions: txs,
		PageNumber:   p.PageNumber,
		PageSize:     p.PageSize,
		TotalCount:   p.TotalCount,
		HasMore:      p.PageNumber*p.PageSize < p.TotalCount,
	}
}

func fromInternalFiles(files []record.File) []File {
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = File{ID: f.ID, Subdir: f.Subdir, Name: f.Name, Size: f.Size, Mtime: f.Mtime, Hashsum: f.Hashsum}
	}
	return out
}
