package match

import "github.com/reunite-labs/reunite/internal/domain/person"

// Scores holds the per-signal components of one candidate's score, kept so
// downstream consumers can explain a ranking instead of trusting a single
// opaque number.
type Scores struct {
	Face     float64
	Location float64
	Age      float64
	Gender   float64
	Clothing float64
	Place    float64
	Combined float64
}

// Candidate is the ephemeral result of scoring one record against a query.
// It lives for one ranking call and is never persisted.
type Candidate struct {
	record           person.Record
	scores           Scores
	distanceKm       float64
	locationResolved bool
}

// NewCandidate creates a scored candidate.
func NewCandidate(rec person.Record, scores Scores, distanceKm float64, locationResolved bool) Candidate {
	return Candidate{
		record:           rec,
		scores:           scores,
		distanceKm:       distanceKm,
		locationResolved: locationResolved,
	}
}

// Record returns the underlying person record.
func (c Candidate) Record() person.Record { return c.record }

// Scores returns the per-signal score components.
func (c Candidate) Scores() Scores { return c.scores }

// DistanceKm returns the computed distance from the query point. Only
// meaningful when LocationResolved is true; otherwise it holds the
// fallback distance.
func (c Candidate) DistanceKm() float64 { return c.distanceKm }

// LocationResolved reports whether the candidate's address geocoded.
func (c Candidate) LocationResolved() bool { return c.locationResolved }
