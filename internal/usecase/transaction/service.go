// Package transaction browses the transactions matching a filter and their files.
package transaction

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
)

// Service handles transaction browsing.
type Service struct {
	matcher Matcher
	repo    Repository
	files   FileLister
}

// New creates a transaction service.
func New(matcher Matcher, repo Repository, files FileLister) *Service {
	return &Service{matcher: matcher, repo: repo, files: files}
}

// Page returns one page of the transactions matching the fully applied filter.
func (s *Service) Page(ctx context.Context, f filter.Filter, pageNumber, pageSize int) (record.TransactionPage, error) {
	candidates, err := s.matcher.Matching(ctx, f)
	if err != nil {
		return record.TransactionPage{}, fmt.Errorf("resolve filter: %w", err)
	}
	return s.repo.Page(ctx, candidates, pageNumber, pageSize)
}

// Files lists the files of an existing transaction.
func (s *Service) Files(ctx context.Context, transactionID int64) ([]record.File, error) {
	if _, err := s.repo.Get(ctx, transactionID); err != nil {
		return nil, err
	}
	files, err := s.files.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}
