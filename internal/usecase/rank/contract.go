package rank

import (
	"context"

	"github.com/reunite-labs/reunite/internal/domain/geo"
	"github.com/reunite-labs/reunite/internal/domain/person"
)

// RecordSource fetches the candidate pool for ranking.
type RecordSource interface {
	FetchCandidates(ctx context.Context, kind person.Kind) ([]person.Record, error)
}

// Resolver resolves candidate addresses in bulk. Unresolvable addresses
// are simply absent from the returned map.
type Resolver interface {
	ResolveAll(ctx context.Context, addresses []string) map[string]geo.Coordinate
}
