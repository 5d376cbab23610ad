package facetdex

import (
	"context"
	"slices"

	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
)

// Component names a dependency whose health the client reports.
type Component string

const (
	// SearchIndex is the Elasticsearch cluster holding the catalog indices.
	// Every facet page and transaction page reads from it.
	SearchIndex Component = healthuc.SearchIndex
	// QueryCache is the optional Valkey/Redis cache in front of the index.
	// Reported only when a cache is configured.
	QueryCache Component = healthuc.QueryCache
)

// HealthStatus represents the aggregated system health.
//
// Status is "ok" when filters resolve normally, "degraded" when the query
// cache is down and facet counts are served uncached, and "error" when the
// search index is unreachable and no filter can resolve.
type HealthStatus struct {
	Status string
	Checks map[Component]string // "ok" or "error"
}

// CanResolve reports whether filters can be resolved, possibly uncached.
func (h HealthStatus) CanResolve() bool {
	return h.Checks[SearchIndex] == string(healthuc.CheckOK)
}

// Failing returns the failing components in name order.
func (h HealthStatus) Failing() []Component {
	var failing []Component
	for c, v := range h.Checks {
		if v != string(healthuc.CheckOK) {
			failing = append(failing, c)
		}
	}
	slices.Sort(failing)
	return failing
}

// Health checks the search index and, when configured, the query cache.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[Component]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[Component(k)] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
