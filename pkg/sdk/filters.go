package facetdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
)

// FilterService resolves filters into facet option pages.
type FilterService struct {
	svc filterUseCase
	obs *observer
}

// PageOption adjusts the pages requested by FilterService.Pages.
type PageOption func(*pagesConfig)

type pagesConfig struct {
	size  int
	pages map[FacetType]int
}

// WithPageSize sets the size of every facet page. 0 selects the default.
func WithPageSize(size int) PageOption {
	return func(c *pagesConfig) { c.size = size }
}

// WithFacetPage requests page number of one facet type instead of its first page.
func WithFacetPage(ft FacetType, pageNumber int) PageOption {
	return func(c *pagesConfig) { c.pages[ft] = pageNumber }
}

// Pages resolves the transaction count and one page of options per facet type.
func (s *FilterService) Pages(ctx context.Context, f Filter, opts ...PageOption) (_ Result, err error) {
	start := time.Now()
	defer func() { s.obs.observe("filter.pages", allFacets, start, err) }()

	inf, err := toInternalFilter(f)
	if err != nil {
		return Result{}, fmt.Errorf("filter: %w", err)
	}

	cfg := pagesConfig{pages: map[FacetType]int{}}
	for _, o := range opts {
		o(&cfg)
	}
	for ft := range cfg.pages {
		if _, err := toInternalFacetType(ft); err != nil {
			return Result{}, fmt.Errorf("page option: %w", err)
		}
	}

	reqs := make([]facet.PageRequest, 0, len(facet.All()))
	for _, t := range facet.All() {
		pageNumber := 1
		if n, ok := cfg.pages[FacetType(t.MachineName())]; ok {
			pageNumber = n
		}
		reqs = append(reqs, facet.PageRequest{Type: t, PageNumber: pageNumber, PageSize: cfg.size})
	}

	res, err := s.svc.FacetPages(ctx, inf, reqs)
	if err != nil {
		return Result{}, fmt.Errorf("resolve filter: %w", err)
	}
	return fromInternalResult(res), nil
}

// Page resolves one page of options of a single facet type.
func (s *FilterService) Page(ctx context.Context, f Filter, ft FacetType, pageNumber, pageSize int) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("filter.page", string(ft), start, err) }()

	inf, err := toInternalFilter(f)
	if err != nil {
		return Page{}, fmt.Errorf("filter: %w", err)
	}
	t, err := facet.Parse(string(ft))
	if err != nil {
		return Page{}, err
	}

	p, err := s.svc.FacetPage(ctx, inf, facet.PageRequest{Type: t, PageNumber: pageNumber, PageSize: pageSize})
	if err != nil {
		return Page{}, fmt.Errorf("resolve %s page: %w", ft, err)
	}
	return fromInternalPage(p), nil
}
