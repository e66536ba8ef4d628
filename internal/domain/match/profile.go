// Package match holds the value objects of the ranking engine: weight
// profiles, queries, ranking options, and scored candidates.
package match

import (
	"fmt"
	"math"

	"github.com/reunite-labs/reunite/internal/domain"
)

// weightEpsilon tolerates float drift when validating that weights sum to 1.
const weightEpsilon = 1e-6

// Weights is one weight per signal. Signals a profile does not use stay 0;
// their scores are still computed for explainability but contribute nothing.
type Weights struct {
	Embedding float64
	Location  float64
	Age       float64
	Gender    float64
	Clothing  float64
	Place     float64
}

func (w Weights) sum() float64 {
	return w.Embedding + w.Location + w.Age + w.Gender + w.Clothing + w.Place
}

// WeightProfile is a named, validated weight set. Profiles are selected per
// ranking call; nothing in the engine hard-codes one.
type WeightProfile struct {
	name    string
	weights Weights
}

// NewWeightProfile validates that the weights sum to 1.0.
func NewWeightProfile(name string, w Weights) (WeightProfile, error) {
	if name == "" {
		return WeightProfile{}, fmt.Errorf("%w: name is required", domain.ErrInvalidProfile)
	}
	if math.Abs(w.sum()-1.0) > weightEpsilon {
		return WeightProfile{}, fmt.Errorf("%w: weights for %q sum to %v, want 1.0",
			domain.ErrInvalidProfile, name, w.sum())
	}
	return WeightProfile{name: name, weights: w}, nil
}

// Name returns the profile name.
func (p WeightProfile) Name() string { return p.name }

// Weights returns the per-signal weights.
func (p WeightProfile) Weights() Weights { return p.weights }

// ProfileLocationFace weighs embedding 0.7 and location 0.3: the
// image-plus-coordinates identify flow.
func ProfileLocationFace() WeightProfile {
	return WeightProfile{name: "location_face", weights: Weights{Embedding: 0.7, Location: 0.3}}
}

// ProfileMultiFactor weighs embedding 0.6 with age, gender, clothing and
// place at 0.1 each: the full-metadata match flow.
func ProfileMultiFactor() WeightProfile {
	return WeightProfile{name: "multi_factor", weights: Weights{
		Embedding: 0.6, Age: 0.1, Gender: 0.1, Clothing: 0.1, Place: 0.1,
	}}
}

// ProfileLocationAge weighs embedding 0.6, location 0.3 and age 0.1: the
// wide-area reverse lookup flow.
func ProfileLocationAge() WeightProfile {
	return WeightProfile{name: "location_age", weights: Weights{
		Embedding: 0.6, Location: 0.3, Age: 0.1,
	}}
}

// ProfileLocationOnly puts all weight on proximity: the nearest-reports
// flow, which orders by raw distance via SortDistance.
func ProfileLocationOnly() WeightProfile {
	return WeightProfile{name: "location_only", weights: Weights{Location: 1}}
}
