// Package health aggregates component liveness for the health endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a model provider is failing; retrieval without
	// that provider may still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is down, so nothing works.
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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding ProviderChecker
}

// New creates a Service. embedding can be nil when the embedding provider
// exposes no health endpoint.
func New(store StorePinger, embedding ProviderChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// Check runs health checks against all components. The store is load-bearing
// for every operation, so its failure marks the whole service unhealthy;
// provider failures only degrade.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
		status = Unhealthy
	} else {
		checks["store"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
