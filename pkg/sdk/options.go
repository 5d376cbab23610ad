package facetdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/facetdex/internal/index"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	esAddrs            []string
	esUsername         string
	esPassword         string
	insecureSkipVerify bool
	indexPrefix        string

	cacheDriver   string // "valkey" or "redis"; empty disables the cache
	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	defaultPageSize  int
	countConcurrency int
	readinessTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer

	// backend replaces the Elasticsearch client (tests).
	backend searchBackend
}

// WithElasticsearch sets the Elasticsearch node addresses.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAddrs = addrs
	})
}

// WithBasicAuth sets Elasticsearch credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithInsecureSkipVerify disables TLS verification for self-signed dev clusters.
func WithInsecureSkipVerify() Option {
	return optionFunc(func(c *clientConfig) {
		c.insecureSkipVerify = true
	})
}

// WithIndexPrefix sets the index name prefix; indices are <prefix>_<backing type>.
// Defaults to "facetdex".
func WithIndexPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPrefix = prefix
	})
}

// WithValkey caches query results in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "valkey"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithRedis caches query results in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithCacheTTL sets how long cached query results live. Default: 60s.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithDefaultPageSize sets the facet page size used when a request leaves it at 0.
// Default: 10.
func WithDefaultPageSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = size
	})
}

// WithCountConcurrency bounds the parallel per-option count queries of a page.
// Default: 8.
func WithCountConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.countConcurrency = n
	})
}

// WithReadinessTimeout bounds the initial wait for the backends. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// withBackend serves searches from s instead of Elasticsearch.
func withBackend(s searchBackend) Option {
	return optionFunc(func(c *clientConfig) {
		c.backend = s
	})
}

type searchBackend interface {
	index.Backend
	index.Pinger
}
