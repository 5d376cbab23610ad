package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
)

// FileRepo reads the files index.
type FileRepo struct {
	gw searchGateway
}

// NewFileRepo creates a file repository.
func NewFileRepo(gw searchGateway) *FileRepo {
	return &FileRepo{gw: gw}
}

// ListByTransaction returns the files of a transaction ordered by path.
func (r *FileRepo) ListByTransaction(ctx context.Context, transactionID int64) ([]record.File, error) {
	q := index.MustQuery(facet.BackingFiles).EqualsOrIn("transaction", transactionID)
	res, err := r.gw.ExecuteAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("files of transaction %d: %w", transactionID, err)
	}
	files, err := gateway.Decode[record.File](res.Hits)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b record.File) int {
		return cmp.Or(cmp.Compare(a.Subdir, b.Subdir), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return files, nil
}
