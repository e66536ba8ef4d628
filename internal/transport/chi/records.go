package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reunite-labs/reunite/internal/domain/person"
)

func (s *Server) handleReportMissing(w http.ResponseWriter, r *http.Request) {
	s.handleReport(w, r, person.KindMissing)
}

func (s *Server) handleReportUnidentified(w http.ResponseWriter, r *http.Request) {
	s.handleReport(w, r, person.KindUnidentified)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, kind person.Kind) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	details, err := detailsFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	image, filename, err := imageFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	rec, err := s.reports.Report(r.Context(), kind, details, image, filename)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/records/%s/%s", rec.Kind(), rec.ID()))
	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := person.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	recs, err := s.records.FetchCandidates(r.Context(), kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]recordResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recordToResponse(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := person.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	rec, err := s.reports.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	kind, err := person.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	var body resolutionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := s.reports.Resolve(r.Context(), kind, chi.URLParam(r, "id"), person.Resolution{
		By:       body.By,
		Location: body.Location,
		Contact:  body.Contact,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var body resolutionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := s.reports.ConfirmIdentification(r.Context(), chi.URLParam(r, "id"), person.Resolution{
		By:       body.By,
		Location: body.Location,
		Contact:  body.Contact,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(rec))
}
