package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the query cache is unavailable; searches still work uncached.
	Degraded Status = "degraded"
	// Unhealthy indicates the search index is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names the checks of a Report.
const (
	SearchIndex = "search_index"
	QueryCache  = "query_cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index Pinger
	cache Pinger
}

// New creates a Service. cache can be nil when caching is disabled.
func New(index, cache Pinger) *Service {
	return &Service{index: index, cache: cache}
}

// Check pings the search index and, when configured, the query cache.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{SearchIndex: ping(ctx, s.index)}
	if s.cache != nil {
		checks[QueryCache] = ping(ctx, s.cache)
	}

	status := Healthy
	switch {
	case checks[SearchIndex] == CheckError:
		status = Unhealthy
	case checks[QueryCache] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
