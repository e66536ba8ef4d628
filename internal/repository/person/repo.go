// Package person implements the record store over Redis/Valkey hashes.
package person

import (
	"context"
	"fmt"
	"sort"

	"github.com/reunite-labs/reunite/internal/domain"
	domperson "github.com/reunite-labs/reunite/internal/domain/person"
)

// store is the consumer interface for records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the record store contracts of the report and rank
// use cases.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save persists a record, overwriting any previous version.
func (r *Repo) Save(ctx context.Context, rec domperson.Record) error {
	key := recordKey(rec.Kind(), rec.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
		return fmt.Errorf("%w: hset %s: %w", domain.ErrDependencyUnavailable, key, err)
	}
	return nil
}

// FetchByID returns one record.
func (r *Repo) FetchByID(ctx context.Context, kind domperson.Kind, id string) (domperson.Record, error) {
	key := recordKey(kind, id)

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domperson.Record{}, fmt.Errorf("%w: hgetall %s: %w", domain.ErrDependencyUnavailable, key, err)
	}
	// HGETALL on a missing key returns an empty map, not an error.
	if len(fields) == 0 {
		return domperson.Record{}, fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, kind, id)
	}

	return parseHashFields(id, kind, fields), nil
}

// FetchCandidates returns every record of a kind in deterministic order
// (creation time, then ID), which fixes the tie-break order for ranking.
func (r *Repo) FetchCandidates(ctx context.Context, kind domperson.Kind) ([]domperson.Record, error) {
	pattern := recordKey(kind, "*")

	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", domain.ErrDependencyUnavailable, pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch records: %w", domain.ErrDependencyUnavailable, err)
	}

	records := make([]domperson.Record, 0, len(maps))
	for i, m := range maps {
		if len(m) == 0 {
			// Key expired or deleted between SCAN and HGETALL.
			continue
		}
		records = append(records, parseHashFields(extractID(keys[i], kind), kind, m))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt().Equal(records[j].CreatedAt()) {
			return records[i].CreatedAt().Before(records[j].CreatedAt())
		}
		return records[i].ID() < records[j].ID()
	})

	return records, nil
}

// UpdateStatus persists a resolved record in place.
func (r *Repo) UpdateStatus(ctx context.Context, rec domperson.Record) error {
	key := recordKey(rec.Kind(), rec.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: exists %s: %w", domain.ErrDependencyUnavailable, key, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, rec.Kind(), rec.ID())
	}

	if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
		return fmt.Errorf("%w: hset %s: %w", domain.ErrDependencyUnavailable, key, err)
	}
	return nil
}
