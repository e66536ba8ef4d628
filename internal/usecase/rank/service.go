// Package rank implements the ranking pipeline: fetch a candidate pool,
// apply hard filters, resolve locations, score every survivor against the
// query, apply post-score filters, then sort and truncate.
package rank

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain/geo"
	"github.com/reunite-labs/reunite/internal/domain/match"
	"github.com/reunite-labs/reunite/internal/domain/person"
	"github.com/reunite-labs/reunite/internal/metrics"
)

// Service ranks candidate records against a query.
type Service struct {
	records  RecordSource
	resolver Resolver
	scorer   *Scorer
	logger   *zap.Logger
}

// New creates a ranking service.
func New(records RecordSource, resolver Resolver, scorer *Scorer, logger *zap.Logger) *Service {
	return &Service{
		records:  records,
		resolver: resolver,
		scorer:   scorer,
		logger:   logger,
	}
}

// Rank scores the pool of records of the given kind against the query and
// returns the top candidates. An empty result is not an error; the result
// reason distinguishes an empty pool from a pool emptied by filters.
func (s *Service) Rank(
	ctx context.Context, kind person.Kind,
	q match.Query, profile match.WeightProfile, opts match.Options,
) (match.Result, error) {
	if err := opts.Validate(); err != nil {
		return match.Result{}, err
	}

	pool, err := s.records.FetchCandidates(ctx, kind)
	if err != nil {
		return match.Result{}, fmt.Errorf("fetch candidates: %w", err)
	}

	totalConsidered := len(pool)
	metrics.MatchRequestsTotal.WithLabelValues(profile.Name()).Inc()
	metrics.MatchCandidatesConsidered.WithLabelValues(profile.Name()).Observe(float64(totalConsidered))

	if totalConsidered == 0 {
		return match.NewResult(nil, 0, 0, match.ReasonEmptyPool), nil
	}

	survivors := s.applyHardFilters(pool, q, opts)
	if len(survivors) == 0 {
		return match.NewResult(nil, totalConsidered, 0, match.ReasonAllFiltered), nil
	}

	coords := s.resolveLocations(ctx, survivors, q)

	candidates := make([]match.Candidate, 0, len(survivors))
	for _, rec := range survivors {
		var coord *geo.Coordinate
		if c, ok := coords[candidateAddress(rec)]; ok {
			coord = &c
		}
		candidates = append(candidates, s.scorer.Score(q, profile, rec, coord, opts.ScaleKm))
	}

	candidates = applyPostFilters(candidates, q, opts)
	totalAfterFilters := len(candidates)
	if totalAfterFilters == 0 {
		return match.NewResult(nil, totalConsidered, 0, match.ReasonAllFiltered), nil
	}

	sortCandidates(candidates, opts.EffectiveSort())

	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}

	return match.NewResult(candidates, totalConsidered, totalAfterFilters, match.ReasonOK), nil
}

// applyHardFilters drops records before any scoring work is spent on them:
// already-resolved records, records without embeddings, and demographic
// exclusions requested by the options.
func (s *Service) applyHardFilters(pool []person.Record, q match.Query, opts match.Options) []person.Record {
	out := make([]person.Record, 0, len(pool))
	for _, rec := range pool {
		if rec.Resolved() {
			continue
		}
		if len(rec.Embedding()) == 0 {
			s.logger.Debug("Skipping record without embedding", zap.String("record_id", rec.ID()))
			continue
		}
		if opts.FilterGender && q.Gender() != "" && rec.Gender() != "" && rec.Gender() != q.Gender() {
			continue
		}
		if opts.AgeWindowYears > 0 && q.Age() > 0 && rec.Age() > 0 {
			if abs(q.Age()-rec.Age()) > opts.AgeWindowYears {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// resolveLocations geocodes candidate addresses when the query carries a
// coordinate. Records whose address fails to resolve keep ranking with the
// fallback distance.
func (s *Service) resolveLocations(ctx context.Context, recs []person.Record, q match.Query) map[string]geo.Coordinate {
	if q.Coordinate() == nil {
		return nil
	}
	addresses := make([]string, 0, len(recs))
	for _, rec := range recs {
		addresses = append(addresses, candidateAddress(rec))
	}
	return s.resolver.ResolveAll(ctx, addresses)
}

// candidateAddress picks the geocodable text for a record: the home
// address when present, otherwise the place the person was last seen.
func candidateAddress(rec person.Record) string {
	if rec.Address() != "" {
		return rec.Address()
	}
	return rec.PlaceLastSeen()
}

func applyPostFilters(candidates []match.Candidate, q match.Query, opts match.Options) []match.Candidate {
	out := candidates[:0]
	for _, c := range candidates {
		if opts.SimilarityFloor > 0 && c.Scores().Face < opts.SimilarityFloor {
			continue
		}
		if opts.RadiusKm > 0 && q.Coordinate() != nil && c.DistanceKm() > opts.RadiusKm {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortCandidates orders by the chosen metric: scores descending, distance
// ascending. The stable sort preserves the deterministic fetch order for
// equal values.
func sortCandidates(candidates []match.Candidate, key match.SortKey) {
	sort.SliceStable(candidates, func(i, j int) bool {
		switch key {
		case match.SortFaceScore:
			return candidates[i].Scores().Face > candidates[j].Scores().Face
		case match.SortDistance:
			return candidates[i].DistanceKm() < candidates[j].DistanceKm()
		default:
			return candidates[i].Scores().Combined > candidates[j].Scores().Combined
		}
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
