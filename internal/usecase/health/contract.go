package health

import "context"

// DBPinger checks record store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external provider (face API, geocoder).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
