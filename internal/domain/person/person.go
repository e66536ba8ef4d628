// Package person holds the record aggregate for missing-person and
// unidentified-body reports.
package person

import (
	"fmt"
	"strings"
	"time"

	"github.com/reunite-labs/reunite/internal/domain"
)

// Kind distinguishes the record collections.
type Kind string

const (
	// KindMissing is a missing-person report.
	KindMissing Kind = "missing"
	// KindUnidentified is an unidentified-body report.
	KindUnidentified Kind = "unidentified"
	// KindIdentified holds confirmed identifications copied from the
	// unidentified collection (copy + status flip, the original stays).
	KindIdentified Kind = "identified"
)

// ParseKind validates a kind string from the API or storage.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMissing, KindUnidentified, KindIdentified:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown record kind %q", s)
	}
}

// Status is the record lifecycle state. Naming differs by kind:
// missing reports go missing -> found, unidentified go
// unidentified -> identified. The transition is one-way.
type Status string

const (
	StatusMissing      Status = "missing"
	StatusFound        Status = "found"
	StatusUnidentified Status = "unidentified"
	StatusIdentified   Status = "identified"
)

// openStatus returns the initial status for a kind.
func openStatus(kind Kind) Status {
	if kind == KindMissing {
		return StatusMissing
	}
	return StatusUnidentified
}

// resolvedStatus returns the terminal status for a kind.
func resolvedStatus(kind Kind) Status {
	if kind == KindMissing {
		return StatusFound
	}
	return StatusIdentified
}

// Resolution records who closed a report and where.
type Resolution struct {
	By       string
	Location string
	Contact  string
}

// Record is one missing-person or unidentified-body entry.
// The embedding is mandatory: a record without one cannot be matched and
// must never be created.
type Record struct {
	id         string
	kind       Kind
	name       string
	age        int
	gender     string
	address    string
	placeSeen  string
	clothing   string
	features   string
	imageURL   string
	embedding  []float32
	status     Status
	createdAt  time.Time
	resolvedAt time.Time
	resolution Resolution
}

// Details carries the optional report metadata for New.
type Details struct {
	Name          string
	Age           int
	Gender        string
	Address       string
	PlaceLastSeen string
	Clothing      string
	Features      string
	ImageURL      string
}

// New validates and creates a Record. The embedding must already be
// extracted; report intake fails before this point when extraction fails.
func New(id string, kind Kind, d Details, embedding []float32, createdAt time.Time) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	if kind != KindMissing && kind != KindUnidentified {
		return Record{}, fmt.Errorf("new records must be %q or %q, got %q",
			KindMissing, KindUnidentified, kind)
	}
	if len(embedding) == 0 {
		return Record{}, fmt.Errorf("embedding is required")
	}
	if d.Age < 0 {
		return Record{}, fmt.Errorf("age must not be negative")
	}

	return Record{
		id:        id,
		kind:      kind,
		name:      strings.TrimSpace(d.Name),
		age:       d.Age,
		gender:    strings.ToLower(strings.TrimSpace(d.Gender)),
		address:   strings.TrimSpace(d.Address),
		placeSeen: strings.TrimSpace(d.PlaceLastSeen),
		clothing:  strings.TrimSpace(d.Clothing),
		features:  strings.TrimSpace(d.Features),
		imageURL:  d.ImageURL,
		embedding: embedding,
		status:    openStatus(kind),
		createdAt: createdAt,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id string, kind Kind, d Details, embedding []float32,
	status Status, createdAt, resolvedAt time.Time, res Resolution,
) Record {
	return Record{
		id: id, kind: kind,
		name: d.Name, age: d.Age, gender: d.Gender,
		address: d.Address, placeSeen: d.PlaceLastSeen,
		clothing: d.Clothing, features: d.Features, imageURL: d.ImageURL,
		embedding: embedding, status: status,
		createdAt: createdAt, resolvedAt: resolvedAt, resolution: res,
	}
}

func (r Record) ID() string           { return r.id }
func (r Record) Kind() Kind           { return r.kind }
func (r Record) Name() string         { return r.name }
func (r Record) Age() int             { return r.age }
func (r Record) Gender() string       { return r.gender }
func (r Record) Address() string      { return r.address }
func (r Record) PlaceLastSeen() string { return r.placeSeen }
func (r Record) Clothing() string     { return r.clothing }
func (r Record) Features() string     { return r.features }
func (r Record) ImageURL() string     { return r.imageURL }
func (r Record) Embedding() []float32 { return r.embedding }
func (r Record) Status() Status       { return r.status }
func (r Record) CreatedAt() time.Time { return r.createdAt }
func (r Record) ResolvedAt() time.Time { return r.resolvedAt }
func (r Record) Resolution() Resolution { return r.resolution }

// Resolved reports whether the one-way transition already happened.
func (r Record) Resolved() bool {
	return r.status == StatusFound || r.status == StatusIdentified
}

// Resolve performs the one-way status transition. A second call fails with
// ErrAlreadyResolved; there is no way back.
func (r *Record) Resolve(res Resolution, at time.Time) error {
	if r.Resolved() {
		return fmt.Errorf("%w: record %s is already %s", domain.ErrAlreadyResolved, r.id, r.status)
	}
	r.status = resolvedStatus(r.kind)
	r.resolvedAt = at
	r.resolution = res
	return nil
}

// AsIdentified returns a copy of an unidentified record placed in the
// identified collection with its status flipped. The source record is not
// modified; confirmed identifications are copies, never moves.
func (r Record) AsIdentified(at time.Time) Record {
	c := r
	c.kind = KindIdentified
	c.status = StatusIdentified
	if c.resolvedAt.IsZero() {
		c.resolvedAt = at
	}
	return c
}
