package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/domain/match"
	"github.com/reunite-labs/reunite/internal/domain/person"
	healthuc "github.com/reunite-labs/reunite/internal/usecase/health"
	"github.com/reunite-labs/reunite/internal/usecase/rank"
)

type mockReporter struct {
	reportFn  func(ctx context.Context, kind person.Kind, d person.Details, image []byte, filename string) (person.Record, error)
	getFn     func(ctx context.Context, kind person.Kind, id string) (person.Record, error)
	resolveFn func(ctx context.Context, kind person.Kind, id string, res person.Resolution) (person.Record, error)
	confirmFn func(ctx context.Context, id string, res person.Resolution) (person.Record, error)
}

func (m *mockReporter) Report(ctx context.Context, kind person.Kind, d person.Details, image []byte, filename string) (person.Record, error) {
	return m.reportFn(ctx, kind, d, image, filename)
}

func (m *mockReporter) Get(ctx context.Context, kind person.Kind, id string) (person.Record, error) {
	return m.getFn(ctx, kind, id)
}

func (m *mockReporter) Resolve(ctx context.Context, kind person.Kind, id string, res person.Resolution) (person.Record, error) {
	return m.resolveFn(ctx, kind, id, res)
}

func (m *mockReporter) ConfirmIdentification(ctx context.Context, id string, res person.Resolution) (person.Record, error) {
	return m.confirmFn(ctx, id, res)
}

type mockRanker struct {
	lastKind    person.Kind
	lastQuery   match.Query
	lastProfile match.WeightProfile
	lastOpts    match.Options
	result      match.Result
	err         error
}

func (m *mockRanker) Rank(ctx context.Context, kind person.Kind, q match.Query, profile match.WeightProfile, opts match.Options) (match.Result, error) {
	m.lastKind = kind
	m.lastQuery = q
	m.lastProfile = profile
	m.lastOpts = opts
	return m.result, m.err
}

type mockLister struct {
	records []person.Record
	err     error
}

func (m *mockLister) FetchCandidates(ctx context.Context, kind person.Kind) ([]person.Record, error) {
	return m.records, m.err
}

type mockEmbedder struct {
	embedding []float32
	err       error
}

func (m *mockEmbedder) EmbedFace(ctx context.Context, image []byte, filename string) ([]float32, error) {
	return m.embedding, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(ctx context.Context) healthuc.Report {
	return m.report
}

type testDeps struct {
	reports  *mockReporter
	matcher  *mockRanker
	records  *mockLister
	embedder *mockEmbedder
	handles  *rank.HandleStore
	health   *mockHealth
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		reports:  &mockReporter{},
		matcher:  &mockRanker{},
		records:  &mockLister{},
		embedder: &mockEmbedder{embedding: []float32{0.1, 0.2}},
		handles:  rank.NewHandleStore(time.Minute),
		health:   &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
	}

	search := SearchOptions{
		Match:    match.Options{TopK: 5, ScaleKm: 100},
		Reverse:  match.Options{TopK: 5, ScaleKm: 600, RadiusKm: 600, AgeWindowYears: 10, FilterGender: true},
		Identify: match.Options{TopK: 1, ScaleKm: 100, SimilarityFloor: 0.4, SortBy: match.SortFaceScore},
		Nearest:  match.Options{TopK: 3, ScaleKm: 100, SortBy: match.SortDistance},
	}

	srv := NewServer(
		deps.reports, deps.matcher, deps.records, deps.embedder,
		deps.handles, deps.health, search, zap.NewNop(),
	)
	return srv, deps
}

func testRecord(t *testing.T, id string, kind person.Kind) person.Record {
	t.Helper()
	rec, err := person.New(id, kind, person.Details{Name: "Asha", Age: 30, Gender: "female"},
		[]float32{0.1, 0.2}, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return rec
}

// multipartRequest builds a multipart POST with an image file and form fields.
func multipartRequest(t *testing.T, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestReportMissing_Created(t *testing.T) {
	srv, deps := newTestServer(t)

	var gotDetails person.Details
	deps.reports.reportFn = func(ctx context.Context, kind person.Kind, d person.Details, image []byte, filename string) (person.Record, error) {
		if kind != person.KindMissing {
			t.Errorf("kind: got %s, want %s", kind, person.KindMissing)
		}
		if filename != "photo.jpg" {
			t.Errorf("filename: got %s, want photo.jpg", filename)
		}
		gotDetails = d
		return testRecord(t, "rec-1", kind), nil
	}

	req := multipartRequest(t, "/api/v1/missing", map[string]string{
		"name":   "Asha",
		"age":    "30",
		"gender": "female",
	}, []byte("jpeg-bytes"))
	rr := serve(srv, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if got := rr.Header().Get("Location"); got != "/api/v1/records/missing/rec-1" {
		t.Errorf("location header: got %s", got)
	}
	if gotDetails.Name != "Asha" || gotDetails.Age != 30 {
		t.Errorf("details: got %+v", gotDetails)
	}

	var resp recordResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "rec-1" || resp.Status != string(person.StatusMissing) {
		t.Errorf("response: got %+v", resp)
	}
}

func TestReport_MissingImage_400(t *testing.T) {
	srv, _ := newTestServer(t)

	req := multipartRequest(t, "/api/v1/unidentified", map[string]string{"name": "x"}, nil)
	rr := serve(srv, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rr); resp.Code != codeBadRequest {
		t.Errorf("code: got %s, want %s", resp.Code, codeBadRequest)
	}
}

func TestReport_InvalidAge_400(t *testing.T) {
	srv, _ := newTestServer(t)

	req := multipartRequest(t, "/api/v1/missing", map[string]string{"age": "thirty"}, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestReport_NoFaceDetected_422(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.reports.reportFn = func(ctx context.Context, kind person.Kind, d person.Details, image []byte, filename string) (person.Record, error) {
		return person.Record{}, domain.ErrNoFaceDetected
	}

	req := multipartRequest(t, "/api/v1/missing", nil, []byte("no-face"))
	rr := serve(srv, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if resp := decodeError(t, rr); resp.Code != codeNoFaceDetected {
		t.Errorf("code: got %s, want %s", resp.Code, codeNoFaceDetected)
	}
}

func TestGetRecord_NotFound_404(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.reports.getFn = func(ctx context.Context, kind person.Kind, id string) (person.Record, error) {
		return person.Record{}, domain.ErrRecordNotFound
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/missing/nope", http.NoBody)
	rr := serve(srv, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if resp := decodeError(t, rr); resp.Code != codeRecordNotFound {
		t.Errorf("code: got %s, want %s", resp.Code, codeRecordNotFound)
	}
}

func TestGetRecord_UnknownKind_400(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/aliens/rec-1", http.NoBody)
	rr := serve(srv, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListRecords_OK(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.records.records = []person.Record{
		testRecord(t, "rec-1", person.KindMissing),
		testRecord(t, "rec-2", person.KindMissing),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/missing", http.NoBody)
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Items []recordResponse `json:"items"`
		Total int              `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Errorf("total: got %d items %d", resp.Total, len(resp.Items))
	}
}

func TestResolve_AlreadyResolved_409(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.reports.resolveFn = func(ctx context.Context, kind person.Kind, id string, res person.Resolution) (person.Record, error) {
		return person.Record{}, domain.ErrAlreadyResolved
	}

	body := bytes.NewBufferString(`{"by":"precinct 4"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/missing/rec-1/resolve", body)
	rr := serve(srv, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if resp := decodeError(t, rr); resp.Code != codeAlreadyResolved {
		t.Errorf("code: got %s, want %s", resp.Code, codeAlreadyResolved)
	}
}

func TestConfirm_OK(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.reports.confirmFn = func(ctx context.Context, id string, res person.Resolution) (person.Record, error) {
		if id != "rec-9" {
			t.Errorf("id: got %s, want rec-9", id)
		}
		if res.By != "city morgue" {
			t.Errorf("by: got %s", res.By)
		}
		rec := testRecord(t, id, person.KindUnidentified)
		return rec.AsIdentified(time.Now().UTC()), nil
	}

	body := bytes.NewBufferString(`{"by":"city morgue","contact":"+91-000"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/rec-9/confirm", body)
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp recordResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Kind != string(person.KindIdentified) || resp.Status != string(person.StatusIdentified) {
		t.Errorf("response: got kind=%s status=%s", resp.Kind, resp.Status)
	}
}

func TestSearchMatch_RanksUnidentified(t *testing.T) {
	srv, deps := newTestServer(t)

	rec := testRecord(t, "rec-1", person.KindUnidentified)
	cand := match.NewCandidate(rec, match.Scores{Face: 0.9, Combined: 0.72}, 12.5, true)
	deps.matcher.result = match.NewResult([]match.Candidate{cand}, 3, 1, match.ReasonOK)

	req := multipartRequest(t, "/api/v1/search/match", map[string]string{
		"lat": "28.6", "lon": "77.2", "age": "30", "gender": "female",
	}, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if deps.matcher.lastKind != person.KindUnidentified {
		t.Errorf("kind: got %s, want %s", deps.matcher.lastKind, person.KindUnidentified)
	}
	if deps.matcher.lastOpts.TopK != 5 {
		t.Errorf("top_k: got %d, want 5", deps.matcher.lastOpts.TopK)
	}
	if deps.matcher.lastQuery.Coordinate() == nil {
		t.Error("expected coordinate on query")
	}

	var resp matchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Handle != "" {
		t.Errorf("handle: got %s, want empty", resp.Handle)
	}
	if resp.Reason != string(match.ReasonOK) || len(resp.Candidates) != 1 {
		t.Fatalf("response: got %+v", resp)
	}
	c := resp.Candidates[0]
	if c.Scores.Face != 0.9 || c.Scores.Combined != 0.72 {
		t.Errorf("scores: got %+v", c.Scores)
	}
	if c.DistanceKm == nil || *c.DistanceKm != 12.5 {
		t.Errorf("distance_km: got %v", c.DistanceKm)
	}
}

func TestSearchReverse_RanksMissing(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.matcher.result = match.NewResult(nil, 0, 0, match.ReasonEmptyPool)

	req := multipartRequest(t, "/api/v1/search/reverse", nil, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if deps.matcher.lastKind != person.KindMissing {
		t.Errorf("kind: got %s, want %s", deps.matcher.lastKind, person.KindMissing)
	}
	if deps.matcher.lastOpts.AgeWindowYears != 10 {
		t.Errorf("age window: got %d, want 10", deps.matcher.lastOpts.AgeWindowYears)
	}

	var resp matchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reason != string(match.ReasonEmptyPool) {
		t.Errorf("reason: got %s, want %s", resp.Reason, match.ReasonEmptyPool)
	}
}

func TestSearchIdentify_ReturnsHandle(t *testing.T) {
	srv, deps := newTestServer(t)

	rec := testRecord(t, "rec-1", person.KindMissing)
	cand := match.NewCandidate(rec, match.Scores{Face: 0.95, Combined: 0.9}, 1.2, true)
	deps.matcher.result = match.NewResult([]match.Candidate{cand}, 4, 1, match.ReasonOK)

	req := multipartRequest(t, "/api/v1/search/identify", map[string]string{
		"lat": "28.6", "lon": "77.2",
	}, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if deps.matcher.lastOpts.SimilarityFloor != 0.4 {
		t.Errorf("similarity floor: got %v, want 0.4", deps.matcher.lastOpts.SimilarityFloor)
	}
	if deps.matcher.lastOpts.SortBy != match.SortFaceScore {
		t.Errorf("sort: got %q, want %q", deps.matcher.lastOpts.SortBy, match.SortFaceScore)
	}

	var resp matchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Handle == "" {
		t.Fatal("expected a result handle")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/search/results/"+resp.Handle, http.NoBody)
	getRR := serve(srv, getReq)

	if getRR.Code != http.StatusOK {
		t.Fatalf("result fetch status: got %d, want %d", getRR.Code, http.StatusOK)
	}
	var fetched matchResponse
	if err := json.NewDecoder(getRR.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode fetched result: %v", err)
	}
	if len(fetched.Candidates) != 1 || fetched.Candidates[0].Record.ID != "rec-1" {
		t.Errorf("fetched result: got %+v", fetched)
	}
}

func TestSearchMatch_SortOverride(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.matcher.result = match.NewResult(nil, 0, 0, match.ReasonEmptyPool)

	req := multipartRequest(t, "/api/v1/search/match", map[string]string{"sort": "face"}, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if deps.matcher.lastOpts.SortBy != match.SortFaceScore {
		t.Errorf("sort: got %q, want %q", deps.matcher.lastOpts.SortBy, match.SortFaceScore)
	}
}

func TestSearchResult_UnknownHandle_404(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/results/no-such-handle", http.NoBody)
	rr := serve(srv, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSearchNearest_UsesNearestOptions(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.matcher.result = match.NewResult(nil, 0, 0, match.ReasonEmptyPool)

	req := multipartRequest(t, "/api/v1/search/nearest", map[string]string{
		"lat": "19.07", "lon": "72.87",
	}, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if deps.matcher.lastOpts.TopK != 3 {
		t.Errorf("top_k: got %d, want 3", deps.matcher.lastOpts.TopK)
	}
	if deps.matcher.lastOpts.SortBy != match.SortDistance {
		t.Errorf("sort: got %q, want %q", deps.matcher.lastOpts.SortBy, match.SortDistance)
	}
}

func TestSearch_EmbedderDown_502(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.embedder.err = domain.ErrEmbeddingProvider

	req := multipartRequest(t, "/api/v1/search/match", nil, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if resp := decodeError(t, rr); resp.Code != codeEmbeddingProvider {
		t.Errorf("code: got %s, want %s", resp.Code, codeEmbeddingProvider)
	}
}

func TestSearch_LatWithoutLon_400(t *testing.T) {
	srv, _ := newTestServer(t)

	req := multipartRequest(t, "/api/v1/search/match", map[string]string{"lat": "28.6"}, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearch_StoreDown_503(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.matcher.err = domain.ErrDependencyUnavailable

	req := multipartRequest(t, "/api/v1/search/match", nil, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestSearch_InternalError_500(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.matcher.err = errors.New("boom")

	req := multipartRequest(t, "/api/v1/search/match", nil, []byte("img"))
	rr := serve(srv, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if resp := decodeError(t, rr); resp.Message != "internal error" {
		t.Errorf("message leaks internals: %s", resp.Message)
	}
}

func TestHealth_Degraded_503(t *testing.T) {
	srv, deps := newTestServer(t)

	deps.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"database": healthuc.CheckError,
			"face_api": healthuc.CheckOK,
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := serve(srv, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Degraded) || resp.Checks["database"] != "error" {
		t.Errorf("response: got %+v", resp)
	}
}
