package match

import (
	"fmt"

	"github.com/reunite-labs/reunite/internal/domain"
)

// SortKey selects the ordering metric for ranked results.
type SortKey string

const (
	// SortCombined orders by the weighted combined score (default).
	SortCombined SortKey = "combined"
	// SortFaceScore orders by the raw embedding similarity alone.
	SortFaceScore SortKey = "face"
	// SortDistance orders by raw distance from the query point, nearest
	// first. Distance is not clamped by the score scale, so records far
	// beyond ScaleKm still order correctly.
	SortDistance SortKey = "distance"
)

// Options are the per-call ranking knobs. Every threshold that diverged
// across the legacy route duplicates is an explicit field here.
type Options struct {
	// TopK truncates the ranked list. Required, > 0.
	TopK int
	// ScaleKm is the distance normalization scale for the location score.
	// Required whenever the query carries a coordinate.
	ScaleKm float64
	// SimilarityFloor drops candidates whose raw face score is below it
	// after scoring. 0 disables the floor.
	SimilarityFloor float64
	// RadiusKm drops candidates farther than this from the query point
	// after scoring; unresolved locations count as the fallback distance
	// and are therefore dropped too. 0 disables the filter.
	RadiusKm float64
	// AgeWindowYears excludes candidates outside query age +- window before
	// scoring, when the query has an age. 0 disables the filter.
	AgeWindowYears int
	// FilterGender excludes candidates whose gender differs from the query
	// gender before scoring, when the query has a gender.
	FilterGender bool
	// SortBy selects the ordering metric; empty means SortCombined.
	SortBy SortKey
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, o.TopK)
	}
	if o.ScaleKm < 0 || o.SimilarityFloor < 0 || o.RadiusKm < 0 || o.AgeWindowYears < 0 {
		return fmt.Errorf("%w: negative option value", domain.ErrInvalidQuery)
	}
	switch o.SortBy {
	case "", SortCombined, SortFaceScore, SortDistance:
		return nil
	default:
		return fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidQuery, o.SortBy)
	}
}

// EffectiveSort resolves the default sort key.
func (o Options) EffectiveSort() SortKey {
	if o.SortBy == "" {
		return SortCombined
	}
	return o.SortBy
}
