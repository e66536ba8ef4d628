package report

import (
	"context"

	"github.com/reunite-labs/reunite/internal/domain/person"
)

// Embedder extracts a face embedding from an uploaded photo.
type Embedder interface {
	EmbedFace(ctx context.Context, image []byte, filename string) ([]float32, error)
}

// Repository defines the storage contract for report intake and
// resolution.
type Repository interface {
	Save(ctx context.Context, rec person.Record) error
	FetchByID(ctx context.Context, kind person.Kind, id string) (person.Record, error)
	UpdateStatus(ctx context.Context, rec person.Record) error
}
