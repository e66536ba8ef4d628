package match

import (
	"fmt"
	"strings"

	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/domain/geo"
)

// Query is a validated ranking query: a mandatory embedding plus optional
// demographic, location, and free-text signals.
type Query struct {
	embedding  []float32
	coordinate *geo.Coordinate
	age        int
	gender     string
	clothing   string
	place      string
}

// QueryParams carries the optional query signals for NewQuery.
type QueryParams struct {
	Coordinate *geo.Coordinate
	Age        int
	Gender     string
	Clothing   string
	Place      string
}

// NewQuery validates structural requirements: the embedding must be
// non-empty, and coordinates, when supplied, must be in range.
func NewQuery(embedding []float32, p QueryParams) (Query, error) {
	if len(embedding) == 0 {
		return Query{}, fmt.Errorf("%w: embedding is required", domain.ErrInvalidQuery)
	}
	if p.Coordinate != nil && !p.Coordinate.Valid() {
		return Query{}, fmt.Errorf("%w: coordinates out of range (lat=%v, lon=%v)",
			domain.ErrInvalidQuery, p.Coordinate.Lat, p.Coordinate.Lon)
	}
	if p.Age < 0 {
		return Query{}, fmt.Errorf("%w: age must not be negative", domain.ErrInvalidQuery)
	}

	return Query{
		embedding:  embedding,
		coordinate: p.Coordinate,
		age:        p.Age,
		gender:     strings.ToLower(strings.TrimSpace(p.Gender)),
		clothing:   strings.TrimSpace(p.Clothing),
		place:      strings.TrimSpace(p.Place),
	}, nil
}

// Embedding returns the query face embedding.
func (q Query) Embedding() []float32 { return q.embedding }

// Coordinate returns the query point, or nil when location is not part of
// the query.
func (q Query) Coordinate() *geo.Coordinate { return q.coordinate }

// Age returns the query age, 0 when absent.
func (q Query) Age() int { return q.age }

// Gender returns the normalized query gender, empty when absent.
func (q Query) Gender() string { return q.gender }

// Clothing returns the clothing description, empty when absent.
func (q Query) Clothing() string { return q.clothing }

// Place returns the place-last-seen text, empty when absent.
func (q Query) Place() string { return q.place }
