// Package report implements report intake and lifecycle: new missing and
// unidentified reports, resolution, and identification confirmation.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain/person"
)

// Service handles the record lifecycle.
type Service struct {
	embedder Embedder
	repo     Repository
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates a report service.
func New(embedder Embedder, repo Repository, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Report files a new record. The embedding is extracted before anything is
// persisted, so a photo the face model rejects never creates a record.
func (s *Service) Report(
	ctx context.Context, kind person.Kind,
	d person.Details, image []byte, filename string,
) (person.Record, error) {
	embedding, err := s.embedder.EmbedFace(ctx, image, filename)
	if err != nil {
		return person.Record{}, fmt.Errorf("extract embedding: %w", err)
	}

	rec, err := person.New(s.newID(), kind, d, embedding, s.now().UTC())
	if err != nil {
		return person.Record{}, fmt.Errorf("create record: %w", err)
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return person.Record{}, fmt.Errorf("save record: %w", err)
	}

	s.logger.Info("Report filed",
		zap.String("record_id", rec.ID()),
		zap.String("kind", string(kind)))

	return rec, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, kind person.Kind, id string) (person.Record, error) {
	rec, err := s.repo.FetchByID(ctx, kind, id)
	if err != nil {
		return person.Record{}, fmt.Errorf("fetch record: %w", err)
	}
	return rec, nil
}

// Resolve closes a report: missing becomes found, unidentified becomes
// identified. A second attempt fails with ErrAlreadyResolved.
func (s *Service) Resolve(
	ctx context.Context, kind person.Kind, id string, res person.Resolution,
) (person.Record, error) {
	rec, err := s.repo.FetchByID(ctx, kind, id)
	if err != nil {
		return person.Record{}, fmt.Errorf("fetch record: %w", err)
	}

	if err := rec.Resolve(res, s.now().UTC()); err != nil {
		return person.Record{}, err
	}

	if err := s.repo.UpdateStatus(ctx, rec); err != nil {
		return person.Record{}, fmt.Errorf("persist resolution: %w", err)
	}

	s.logger.Info("Report resolved",
		zap.String("record_id", rec.ID()),
		zap.String("kind", string(kind)),
		zap.String("status", string(rec.Status())))

	return rec, nil
}

// ConfirmIdentification confirms an unidentified record's identity: a copy
// is stored in the identified collection and the source record is closed.
// The source stays in place for audit.
func (s *Service) ConfirmIdentification(
	ctx context.Context, id string, res person.Resolution,
) (person.Record, error) {
	rec, err := s.repo.FetchByID(ctx, person.KindUnidentified, id)
	if err != nil {
		return person.Record{}, fmt.Errorf("fetch record: %w", err)
	}

	now := s.now().UTC()
	if err := rec.Resolve(res, now); err != nil {
		return person.Record{}, err
	}

	identified := rec.AsIdentified(now)
	if err := s.repo.Save(ctx, identified); err != nil {
		return person.Record{}, fmt.Errorf("save identified copy: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, rec); err != nil {
		return person.Record{}, fmt.Errorf("persist resolution: %w", err)
	}

	s.logger.Info("Identification confirmed", zap.String("record_id", rec.ID()))

	return identified, nil
}
