package facetdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	"github.com/kailas-cloud/facetdex/internal/index"
	"github.com/kailas-cloud/facetdex/internal/repository/catalog"
	"github.com/kailas-cloud/facetdex/internal/repository/gateway"
	"github.com/kailas-cloud/facetdex/internal/repository/querycache"
	"github.com/kailas-cloud/facetdex/internal/transport/elastic"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	"github.com/kailas-cloud/facetdex/internal/usecase/resolver"
	txuc "github.com/kailas-cloud/facetdex/internal/usecase/transaction"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 60 * time.Second
	defaultIndexPrefix      = "facetdex"
)

// Internal interfaces for substitution in tests.
type filterUseCase interface {
	FacetPages(ctx context.Context, f filter.Filter, reqs []facet.PageRequest) (resolver.Result, error)
	FacetPage(ctx context.Context, f filter.Filter, req facet.PageRequest) (facet.Page, error)
}

type transactionUseCase interface {
	Page(ctx context.Context, f filter.Filter, pageNumber, pageSize int) (record.TransactionPage, error)
	Files(ctx context.Context, transactionID int64) ([]record.File, error)
}

// Client is the facetdex SDK entry point.
type Client struct {
	backend   index.Pinger
	store     db.Store
	filterSvc filterUseCase
	txSvc     transactionUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and waits for the search index (and cache, if configured).
// The provided context is used for the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		indexPrefix:      defaultIndexPrefix,
		cacheTTL:         defaultCacheTTL,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backend := cfg.backend
	if backend == nil {
		if len(cfg.esAddrs) == 0 {
			return nil, errors.New("facetdex: search address required (use WithElasticsearch)")
		}
		es, err := elastic.NewSearcher(elastic.Config{
			Addresses:          cfg.esAddrs,
			Username:           cfg.esUsername,
			Password:           cfg.esPassword,
			InsecureSkipVerify: cfg.insecureSkipVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("facetdex: create search client: %w", err)
		}
		if err := es.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			return nil, fmt.Errorf("facetdex: search index not ready: %w", err)
		}
		backend = es
	}

	var store db.Store
	if cfg.cacheDriver != "" {
		if store, err = createStore(cfg); err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("facetdex: cache not ready: %w", err)
		}
	}

	return wireClient(backend, store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("facetdex: create %s store: %w", cfg.cacheDriver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("facetdex: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(backend searchBackend, store db.Store, cfg *clientConfig, obs *observer) *Client {
	var searcher index.Backend = backend
	// Pass nil interface (not typed nil pointer!) to health when uncached.
	var cachePinger healthuc.Pinger
	if store != nil {
		searcher = querycache.New(backend, store, cfg.cacheTTL, nil, zap.NewNop())
		cachePinger = store
	}

	registry := catalog.NewRegistry(gateway.New(searcher, cfg.indexPrefix), catalog.Options{
		DefaultPageSize:  cfg.defaultPageSize,
		CountConcurrency: cfg.countConcurrency,
	})
	filterSvc := resolver.New(registry, registry.Transactions())

	return &Client{
		backend:   backend,
		store:     store,
		filterSvc: filterSvc,
		txSvc:     txuc.New(filterSvc, registry.Transactions(), registry.Files()),
		healthSvc: healthuc.New(backend, cachePinger),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks search index connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", noFacet, start, err) }()

	if err = c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Filters returns the filter resolution service.
func (c *Client) Filters() *FilterService {
	return &FilterService{svc: c.filterSvc, obs: c.obs}
}

// Transactions returns the transaction browsing service.
func (c *Client) Transactions() *TransactionService {
	return &TransactionService{svc: c.txSvc, obs: c.obs}
}
