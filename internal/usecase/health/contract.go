package health

import "context"

// StorePinger checks storage backend availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external model provider's availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
