package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/domain/person"
)

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) EmbedFace(_ context.Context, _ []byte, _ string) ([]float32, error) {
	m.calls++
	return m.vec, m.err
}

type mockRepo struct {
	saved   []person.Record
	updated []person.Record
	records map[string]person.Record
	saveErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[string]person.Record)}
}

func (m *mockRepo) Save(_ context.Context, rec person.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, rec)
	m.records[string(rec.Kind())+"/"+rec.ID()] = rec
	return nil
}

func (m *mockRepo) FetchByID(_ context.Context, kind person.Kind, id string) (person.Record, error) {
	rec, ok := m.records[string(kind)+"/"+id]
	if !ok {
		return person.Record{}, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, rec person.Record) error {
	m.updated = append(m.updated, rec)
	m.records[string(rec.Kind())+"/"+rec.ID()] = rec
	return nil
}

func newTestService(embedder *mockEmbedder, repo *mockRepo) *Service {
	svc := New(embedder, repo, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "fixed-id" }
	return svc
}

func TestReport_Missing(t *testing.T) {
	embedder := &mockEmbedder{vec: []float32{0.1, 0.2}}
	repo := newMockRepo()
	svc := newTestService(embedder, repo)

	rec, err := svc.Report(context.Background(), person.KindMissing,
		person.Details{Name: "Sita Devi", Age: 65}, []byte("jpeg"), "sita.jpg")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if rec.ID() != "fixed-id" {
		t.Errorf("id = %q", rec.ID())
	}
	if rec.Kind() != person.KindMissing || rec.Status() != person.StatusMissing {
		t.Errorf("kind/status = %q/%q", rec.Kind(), rec.Status())
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(repo.saved))
	}
	if len(rec.Embedding()) != 2 {
		t.Errorf("embedding not attached: %v", rec.Embedding())
	}
}

func TestReport_NoFaceCreatesNothing(t *testing.T) {
	embedder := &mockEmbedder{err: domain.ErrNoFaceDetected}
	repo := newMockRepo()
	svc := newTestService(embedder, repo)

	_, err := svc.Report(context.Background(), person.KindUnidentified,
		person.Details{}, []byte("scenery"), "hill.jpg")
	if !errors.Is(err, domain.ErrNoFaceDetected) {
		t.Fatalf("expected ErrNoFaceDetected, got %v", err)
	}
	if len(repo.saved) != 0 {
		t.Error("a rejected photo must not create a record")
	}
}

func TestResolve_FlipsStatusOnce(t *testing.T) {
	embedder := &mockEmbedder{vec: []float32{0.1}}
	repo := newMockRepo()
	svc := newTestService(embedder, repo)

	if _, err := svc.Report(context.Background(), person.KindMissing,
		person.Details{Name: "Ravi"}, []byte("img"), "r.jpg"); err != nil {
		t.Fatalf("Report: %v", err)
	}

	rec, err := svc.Resolve(context.Background(), person.KindMissing, "fixed-id",
		person.Resolution{By: "family", Location: "Cuttack"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.Status() != person.StatusFound {
		t.Errorf("status = %q, want %q", rec.Status(), person.StatusFound)
	}
	if rec.Resolution().Location != "Cuttack" {
		t.Errorf("resolution not recorded: %+v", rec.Resolution())
	}

	_, err = svc.Resolve(context.Background(), person.KindMissing, "fixed-id", person.Resolution{})
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("second resolve: expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResolve_NotFound(t *testing.T) {
	svc := newTestService(&mockEmbedder{}, newMockRepo())

	_, err := svc.Resolve(context.Background(), person.KindMissing, "ghost", person.Resolution{})
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestConfirmIdentification_CopiesNotMoves(t *testing.T) {
	embedder := &mockEmbedder{vec: []float32{0.1}}
	repo := newMockRepo()
	svc := newTestService(embedder, repo)

	if _, err := svc.Report(context.Background(), person.KindUnidentified,
		person.Details{Gender: "male"}, []byte("img"), "u.jpg"); err != nil {
		t.Fatalf("Report: %v", err)
	}

	identified, err := svc.ConfirmIdentification(context.Background(), "fixed-id",
		person.Resolution{By: "district hospital"})
	if err != nil {
		t.Fatalf("ConfirmIdentification: %v", err)
	}

	if identified.Kind() != person.KindIdentified || identified.Status() != person.StatusIdentified {
		t.Errorf("copy kind/status = %q/%q", identified.Kind(), identified.Status())
	}

	// The source record stays in the unidentified collection, now closed.
	source, err := repo.FetchByID(context.Background(), person.KindUnidentified, "fixed-id")
	if err != nil {
		t.Fatalf("source record gone: %v", err)
	}
	if source.Status() != person.StatusIdentified {
		t.Errorf("source status = %q, want %q", source.Status(), person.StatusIdentified)
	}

	if _, err := repo.FetchByID(context.Background(), person.KindIdentified, "fixed-id"); err != nil {
		t.Errorf("identified copy not saved: %v", err)
	}
}

func TestConfirmIdentification_AlreadyConfirmed(t *testing.T) {
	embedder := &mockEmbedder{vec: []float32{0.1}}
	repo := newMockRepo()
	svc := newTestService(embedder, repo)

	if _, err := svc.Report(context.Background(), person.KindUnidentified,
		person.Details{}, []byte("img"), "u.jpg"); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if _, err := svc.ConfirmIdentification(context.Background(), "fixed-id", person.Resolution{}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, err := svc.ConfirmIdentification(context.Background(), "fixed-id", person.Resolution{})
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}
