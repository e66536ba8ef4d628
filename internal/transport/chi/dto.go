package chi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/reunite-labs/reunite/internal/domain/geo"
	"github.com/reunite-labs/reunite/internal/domain/match"
	"github.com/reunite-labs/reunite/internal/domain/person"
	healthuc "github.com/reunite-labs/reunite/internal/usecase/health"
)

type resolutionBody struct {
	By       string `json:"by"`
	Location string `json:"location"`
	Contact  string `json:"contact"`
}

type recordResponse struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Name          string          `json:"name,omitempty"`
	Age           int             `json:"age,omitempty"`
	Gender        string          `json:"gender,omitempty"`
	Address       string          `json:"address,omitempty"`
	PlaceLastSeen string          `json:"place_last_seen,omitempty"`
	Clothing      string          `json:"clothing,omitempty"`
	Features      string          `json:"features,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	Resolution    *resolutionBody `json:"resolution,omitempty"`
}

type scoresResponse struct {
	Face     float64 `json:"face"`
	Location float64 `json:"location"`
	Age      float64 `json:"age"`
	Gender   float64 `json:"gender"`
	Clothing float64 `json:"clothing"`
	Place    float64 `json:"place"`
	Combined float64 `json:"combined"`
}

type candidateResponse struct {
	Record           recordResponse `json:"record"`
	Scores           scoresResponse `json:"scores"`
	DistanceKm       *float64       `json:"distance_km,omitempty"`
	LocationResolved bool           `json:"location_resolved"`
}

type matchResponse struct {
	Handle            string              `json:"handle,omitempty"`
	Reason            string              `json:"reason"`
	TotalConsidered   int                 `json:"total_candidates_considered"`
	TotalAfterFilters int                 `json:"total_after_filters"`
	Candidates        []candidateResponse `json:"candidates"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func recordToResponse(rec person.Record) recordResponse {
	resp := recordResponse{
		ID:            rec.ID(),
		Kind:          string(rec.Kind()),
		Name:          rec.Name(),
		Age:           rec.Age(),
		Gender:        rec.Gender(),
		Address:       rec.Address(),
		PlaceLastSeen: rec.PlaceLastSeen(),
		Clothing:      rec.Clothing(),
		Features:      rec.Features(),
		ImageURL:      rec.ImageURL(),
		Status:        string(rec.Status()),
		CreatedAt:     rec.CreatedAt(),
	}
	if !rec.ResolvedAt().IsZero() {
		at := rec.ResolvedAt()
		resp.ResolvedAt = &at
	}
	if res := rec.Resolution(); res != (person.Resolution{}) {
		resp.Resolution = &resolutionBody{
			By:       res.By,
			Location: res.Location,
			Contact:  res.Contact,
		}
	}
	return resp
}

func resultToResponse(res match.Result, handle string, hasCoordinate bool) matchResponse {
	candidates := make([]candidateResponse, 0, len(res.Candidates()))
	for i := range res.Candidates() {
		c := res.Candidates()[i]
		item := candidateResponse{
			Record:           recordToResponse(c.Record()),
			Scores:           scoresResponse(c.Scores()),
			LocationResolved: c.LocationResolved(),
		}
		if hasCoordinate {
			d := c.DistanceKm()
			item.DistanceKm = &d
		}
		candidates = append(candidates, item)
	}
	return matchResponse{
		Handle:            handle,
		Reason:            string(res.Reason()),
		TotalConsidered:   res.TotalCandidatesConsidered(),
		TotalAfterFilters: res.TotalAfterFilters(),
		Candidates:        candidates,
	}
}

func healthToResponse(report healthuc.Report) healthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return healthResponse{Status: string(report.Status), Checks: checks}
}

// detailsFromForm reads the report metadata fields from a multipart form.
func detailsFromForm(r *http.Request) (person.Details, error) {
	d := person.Details{
		Name:          r.FormValue("name"),
		Gender:        r.FormValue("gender"),
		Address:       r.FormValue("address"),
		PlaceLastSeen: r.FormValue("place_last_seen"),
		Clothing:      r.FormValue("clothing"),
		Features:      r.FormValue("features"),
		ImageURL:      r.FormValue("image_url"),
	}
	if v := r.FormValue("age"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return person.Details{}, fmt.Errorf("invalid age %q", v)
		}
		d.Age = age
	}
	return d, nil
}

// imageFromForm reads the uploaded photo from the "image" form file.
func imageFromForm(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("image file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image file is empty")
	}
	return data, header.Filename, nil
}

// coordinateFromForm reads optional lat/lon form fields. Both must be
// present together.
func coordinateFromForm(r *http.Request) (*geo.Coordinate, error) {
	latStr, lonStr := r.FormValue("lat"), r.FormValue("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("lat and lon must be provided together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q", lonStr)
	}
	return &geo.Coordinate{Lat: lat, Lon: lon}, nil
}

// queryParamsFromForm reads the optional demographic query signals.
func queryParamsFromForm(r *http.Request) (match.QueryParams, error) {
	coord, err := coordinateFromForm(r)
	if err != nil {
		return match.QueryParams{}, err
	}

	p := match.QueryParams{
		Coordinate: coord,
		Gender:     r.FormValue("gender"),
		Clothing:   r.FormValue("clothing"),
		Place:      r.FormValue("place_last_seen"),
	}
	if v := r.FormValue("age"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return match.QueryParams{}, fmt.Errorf("invalid age %q", v)
		}
		p.Age = age
	}
	return p, nil
}
