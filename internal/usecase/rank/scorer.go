package rank

import (
	"math"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain/geo"
	"github.com/reunite-labs/reunite/internal/domain/match"
	"github.com/reunite-labs/reunite/internal/domain/person"
	"github.com/reunite-labs/reunite/internal/domain/text"
	"github.com/reunite-labs/reunite/internal/domain/vector"
)

// Scorer computes per-signal scores for one candidate against a query.
// It is stateless and shared across ranking calls.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer creates a scorer.
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score evaluates a record against the query under a weight profile.
// coord is the candidate's resolved coordinate, nil when geocoding failed
// or was skipped. All component scores are rounded to three decimals.
func (s *Scorer) Score(
	q match.Query, profile match.WeightProfile,
	rec person.Record, coord *geo.Coordinate, scaleKm float64,
) match.Candidate {
	var sc match.Scores

	face, err := vector.CosineSimilarity(q.Embedding(), rec.Embedding())
	if err != nil {
		// A stored record with a wrong-size vector is data corruption, not
		// a reason to fail the whole ranking call. Score it as no match.
		s.logger.Warn("Embedding comparison failed, scoring face as zero",
			zap.String("record_id", rec.ID()), zap.Error(err))
		face = 0
	}
	sc.Face = round3(face)

	distanceKm := 0.0
	resolved := false
	if q.Coordinate() != nil {
		distanceKm = geo.FallbackDistanceKm
		if coord != nil {
			distanceKm = geo.HaversineKm(*q.Coordinate(), *coord)
			resolved = true
		}
		sc.Location = round3(geo.DistanceScore(distanceKm, scaleKm))
	}

	sc.Age = round3(text.NumericCloseness(q.Age(), rec.Age()))
	sc.Gender = round3(text.CategoryMatch(q.Gender(), rec.Gender()))
	sc.Clothing = round3(text.PartialRatio(q.Clothing(), rec.Clothing()))
	sc.Place = round3(text.PartialRatio(q.Place(), rec.PlaceLastSeen()))

	w := profile.Weights()
	sc.Combined = round3(
		w.Embedding*sc.Face +
			w.Location*sc.Location +
			w.Age*sc.Age +
			w.Gender*sc.Gender +
			w.Clothing*sc.Clothing +
			w.Place*sc.Place,
	)

	return match.NewCandidate(rec, sc, distanceKm, resolved)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
