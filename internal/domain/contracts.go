package domain

import (
	"context"

	"github.com/reunite-labs/reunite/internal/domain/geo"
)

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
}

// FaceEmbedder turns a face photo into an embedding vector.
type FaceEmbedder interface {
	EmbedFace(ctx context.Context, image []byte, filename string) ([]float32, error)
}

// HealthChecker verifies an external provider is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
