package facetdex

import (
	"context"
	"fmt"
	"time"
)

// TransactionService browses the transactions matching a filter.
type TransactionService struct {
	svc transactionUseCase
	obs *observer
}

// Page returns one page of matching transactions, most recent first.
// pageSize 0 selects the default.
func (s *TransactionService) Page(ctx context.Context, f Filter, pageNumber, pageSize int) (_ TransactionPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("transaction.page", noFacet, start, err) }()

	inf, err := toInternalFilter(f)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("filter: %w", err)
	}
	p, err := s.svc.Page(ctx, inf, pageNumber, pageSize)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("transaction page: %w", err)
	}
	return fromInternalTransactionPage(p), nil
}

// Files lists the files of a transaction. Unknown transactions yield ErrNotFound.
func (s *TransactionService) Files(ctx context.Context, transactionID int64) (_ []File, err error) {
	start := time.Now()
	defer func() { s.obs.observe("transaction.files", noFacet, start, err) }()

	files, err := s.svc.Files(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %d files: %w", transactionID, err)
	}
	return fromInternalFiles(files), nil
}
