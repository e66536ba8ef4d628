package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reunite-labs/reunite/internal/domain/match"
	"github.com/reunite-labs/reunite/internal/domain/person"
)

// handleSearchMatch ranks unidentified records against a missing-person
// description: full metadata signals under the multi-factor profile.
func (s *Server) handleSearchMatch(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, person.KindUnidentified, match.ProfileMultiFactor(), s.search.Match, false)
}

// handleSearchReverse ranks missing reports against a found person or
// body: wide-area location plus age under the location-age profile.
func (s *Server) handleSearchReverse(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, person.KindMissing, match.ProfileLocationAge(), s.search.Reverse, false)
}

// handleSearchIdentify is the strict single-match flow: photo plus
// coordinates against missing reports, with the similarity floor. The
// result is retained under a handle for later retrieval.
func (s *Server) handleSearchIdentify(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, person.KindMissing, match.ProfileLocationFace(), s.search.Identify, true)
}

// handleSearchNearest orders missing reports by proximity alone.
func (s *Server) handleSearchNearest(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, person.KindMissing, match.ProfileLocationOnly(), s.search.Nearest, false)
}

func (s *Server) handleSearch(
	w http.ResponseWriter, r *http.Request,
	kind person.Kind, profile match.WeightProfile, opts match.Options, keepHandle bool,
) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	image, filename, err := imageFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	params, err := queryParamsFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	// Optional sort override, validated by Options.Validate downstream.
	if v := r.FormValue("sort"); v != "" {
		opts.SortBy = match.SortKey(v)
	}

	embedding, err := s.embedder.EmbedFace(r.Context(), image, filename)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	q, err := match.NewQuery(embedding, params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	result, err := s.matcher.Rank(r.Context(), kind, q, profile, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	handle := ""
	if keepHandle {
		handle = s.handles.Put(result)
	}

	writeJSON(w, http.StatusOK, resultToResponse(result, handle, q.Coordinate() != nil))
}

func (s *Server) handleSearchResult(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	result, ok := s.handles.Get(handle)
	if !ok {
		writeError(w, http.StatusNotFound, codeRecordNotFound, "unknown or expired result handle")
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(result, handle, true))
}
