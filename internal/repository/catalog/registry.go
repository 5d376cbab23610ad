package catalog

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index"
)

// Registry lazily constructs repositories and hands them out by facet type.
// Repositories that need a neighbour ask the registry at call time, so
// mutually referring types never need each other at construction.
type Registry struct {
	gw   searchGateway
	opts Options

	mu     sync.Mutex
	facets map[facet.Type]facet.Repository
	tx     *TransactionRepo
	files  *FileRepo
}

// NewRegistry creates a registry over a search gateway.
func NewRegistry(gw searchGateway, opts Options) *Registry {
	return &Registry{
		gw:     gw,
		opts:   opts.withDefaults(),
		facets: make(map[facet.Type]facet.Repository, len(facet.All())),
	}
}

// Facet returns the repository of a facet type.
func (r *Registry) Facet(t facet.Type) (facet.Repository, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFacetType, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if repo, ok := r.facets[t]; ok {
		return repo, nil
	}
	repo := r.build(t)
	r.facets[t] = repo
	return repo, nil
}

// Transactions returns the transaction repository.
func (r *Registry) Transactions() *TransactionRepo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transactionsLocked()
}

// Files returns the file repository.
func (r *Registry) Files() *FileRepo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.files == nil {
		r.files = NewFileRepo(r.gw)
	}
	return r.files
}

func (r *Registry) transactionsLocked() *TransactionRepo {
	if r.tx == nil {
		r.tx = NewTransactionRepo(r.gw, r.opts)
	}
	return r.tx
}

// build must be called with mu held.
func (r *Registry) build(t facet.Type) facet.Repository {
	tx := r.transactionsLocked()

	switch t {
	case facet.Institution:
		return &facetRepo[record.Institution, *record.Institution]{
			ft: t, gw: r.gw, tx: tx, opts: r.opts,
			rel: &derived{
				reg: r, gw: r.gw, own: facet.BackingInstitutions,
				through: facet.User, field: "users",
				members: institutionUsers,
			},
		}
	case facet.Instrument:
		return &facetRepo[record.Instrument, *record.Instrument]{
			ft: t, gw: r.gw, tx: tx, opts: r.opts,
			rel: &direct{tx: tx, field: "instrument", pick: func(rec record.Transaction) int64 { return rec.Instrument }},
		}
	case facet.InstrumentType:
		return &facetRepo[record.Group, *record.Group]{
			ft: t, gw: r.gw, tx: tx, opts: r.opts, scope: instrumentTypeScope,
			rel: &derived{
				reg: r, gw: r.gw, own: facet.BackingGroups,
				through: facet.Instrument, field: "instruments",
				scope: instrumentTypeScope, members: instrumentTypeInstruments,
			},
		}
	case facet.Proposal:
		return &facetRepo[record.Proposal, *record.Proposal]{
			ft: t, gw: r.gw, tx: tx, opts: r.opts,
			rel: &direct{tx: tx, field: "proposal", pick: func(rec record.Transaction) int64 { return rec.Proposal }},
		}
	default: // facet.User
		return &facetRepo[record.User, *record.User]{
			ft: t, gw: r.gw, tx: tx, opts: r.opts,
			rel: &direct{tx: tx, field: "submitter", pick: func(rec record.Transaction) int64 { return rec.Submitter }},
		}
	}
}

func instrumentTypeScope(q *index.Query) *index.Query {
	return q.EqualsOrIn("category", facet.InstrumentTypeCategory)
}
