// Package resolver turns a filter into matching transactions and per-facet option pages.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/idset"
	"github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// Result is a full resolution of a filter.
type Result struct {
	// TransactionCount counts the transactions matching the fully applied filter.
	TransactionCount int
	Pages            map[facet.Type]facet.Page
	// TransactionIDs lists the matching transactions; empty when the filter is unconstrained.
	TransactionIDs []int64
}

// Service resolves filters. It holds no per-request state and is safe for concurrent use.
type Service struct {
	repos Repositories
	txs   Transactions
}

// New creates a resolver service.
func New(repos Repositories, txs Transactions) *Service {
	return &Service{repos: repos, txs: txs}
}

// MatchingTransactionIDs queries every constrained dimension of f concurrently.
func (s *Service) MatchingTransactionIDs(ctx context.Context, f filter.Filter) (Dimensions, error) {
	var mu sync.Mutex
	dims := Dimensions{}
	set := func(key string, ids []int64) {
		mu.Lock()
		dims[key] = ids
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	if text := f.Text(); text != "" {
		g.Go(func() error {
			ids, err := s.txs.IDsByText(ctx, text)
			if err != nil {
				return fmt.Errorf("text dimension: %w", err)
			}
			set(facet.TextKey, ids)
			return nil
		})
	}
	for _, ft := range f.Constrained() {
		g.Go(func() error {
			repo, err := s.repos.Facet(ft)
			if err != nil {
				return err
			}
			ids, err := repo.TransactionIDsByOwnIDs(ctx, f.IDs(ft))
			if err != nil {
				return fmt.Errorf("%s dimension: %w", ft.MachineName(), err)
			}
			set(ft.MachineName(), ids)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dims, nil
}

// Matching returns the transactions of the fully applied filter.
func (s *Service) Matching(ctx context.Context, f filter.Filter) (facet.Candidates, error) {
	dims, err := s.MatchingTransactionIDs(ctx, f)
	if err != nil {
		return facet.Candidates{}, err
	}
	return dims.Intersect(), nil
}

// Candidates returns the transactions a facet type's options are drawn from:
// the filter with that type's own selection lifted.
func (s *Service) Candidates(ctx context.Context, f filter.Filter, ft facet.Type) (facet.Candidates, error) {
	if !ft.IsValid() {
		return facet.Candidates{}, fmt.Errorf("%w: %s", domain.ErrInvalidFacetType, ft)
	}
	dims, err := s.MatchingTransactionIDs(ctx, f)
	if err != nil {
		return facet.Candidates{}, err
	}
	return dims.Intersect(ft.MachineName()), nil
}

// FacetPages resolves the transaction count and one page per request.
// With no requests every facet type gets its first page.
func (s *Service) FacetPages(ctx context.Context, f filter.Filter, reqs []facet.PageRequest) (Result, error) {
	res, err := s.facetPages(ctx, f, reqs)
	observe(err)
	if err != nil {
		return Result{}, err
	}
	logger.FromContext(ctx).Debug("filter resolved",
		zap.Int("transaction_count", res.TransactionCount),
		zap.Int("pages", len(res.Pages)),
	)
	return res, nil
}

func (s *Service) facetPages(ctx context.Context, f filter.Filter, reqs []facet.PageRequest) (Result, error) {
	if len(reqs) == 0 {
		for _, ft := range facet.All() {
			reqs = append(reqs, facet.PageRequest{Type: ft, PageNumber: 1})
		}
	}
	seen := make(map[facet.Type]bool, len(reqs))
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return Result{}, err
		}
		if seen[req.Type] {
			return Result{}, fmt.Errorf("%w: duplicate request for %s", domain.ErrInvalidPage, req.Type.MachineName())
		}
		seen[req.Type] = true
	}

	dims, err := s.MatchingTransactionIDs(ctx, f)
	if err != nil {
		return Result{}, err
	}

	res := Result{Pages: make(map[facet.Type]facet.Page, len(reqs)), TransactionIDs: []int64{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		g.Go(func() error {
			page, err := s.page(gctx, f, dims, req)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Pages[req.Type] = page
			mu.Unlock()
			return nil
		})
	}

	all := dims.Intersect()
	if all.IsConstrained() {
		res.TransactionIDs = all.IDs()
		res.TransactionCount = len(all.IDs())
	} else {
		g.Go(func() error {
			n, err := s.txs.Count(gctx)
			if err != nil {
				return err
			}
			res.TransactionCount = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// FacetPage resolves a single facet type's page.
func (s *Service) FacetPage(ctx context.Context, f filter.Filter, req facet.PageRequest) (facet.Page, error) {
	if err := req.Validate(); err != nil {
		observe(err)
		return facet.Page{}, err
	}
	dims, err := s.MatchingTransactionIDs(ctx, f)
	if err != nil {
		observe(err)
		return facet.Page{}, err
	}
	page, err := s.page(ctx, f, dims, req)
	observe(err)
	return page, err
}

// page lifts req.Type's own dimension and hides its already selected ids.
func (s *Service) page(ctx context.Context, f filter.Filter, dims Dimensions, req facet.PageRequest) (facet.Page, error) {
	repo, err := s.repos.Facet(req.Type)
	if err != nil {
		return facet.Page{}, err
	}
	candidates := dims.Intersect(req.Type.MachineName())
	req.ExcludedIDs = idset.Union(f.IDs(req.Type), req.ExcludedIDs)
	return repo.PageByTransactionIDs(ctx, candidates, req)
}

func observe(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.FacetResolutionsTotal.WithLabelValues(status).Inc()
}
