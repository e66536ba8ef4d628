package georesolve

import (
	"context"

	"github.com/reunite-labs/reunite/internal/domain/geo"
)

// Geocoder resolves addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
}
