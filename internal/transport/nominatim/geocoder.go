// Package nominatim implements the geocoder contract against a
// Nominatim-compatible search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/domain/geo"
	"github.com/reunite-labs/reunite/internal/metrics"
)

// Geocoder resolves addresses via the Nominatim search endpoint.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// Config holds the geocoder settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// New creates a Nominatim client. The usage policy requires a
// distinctive User-Agent on every request.
func New(cfg *Config) *Geocoder {
	return &Geocoder{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    cfg.Logger,
	}
}

// searchResult is the subset of the Nominatim response we consume.
// Nominatim returns lat/lon as strings.
type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode implements domain.Geocoder. Returns ErrLocationNotFound when
// the API has no match and ErrDependencyUnavailable on transport failure.
func (g *Geocoder) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	reqURL := g.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	start := time.Now()
	resp, err := g.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return geo.Coordinate{}, fmt.Errorf("%w: geocode request: %w", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geo.Coordinate{}, fmt.Errorf("%w: geocode API status %d: %s",
			domain.ErrDependencyUnavailable, resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return geo.Coordinate{}, fmt.Errorf("%w: decode geocode response: %w", domain.ErrDependencyUnavailable, err)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("success").Inc()
	metrics.GeocodeRequestDuration.WithLabelValues("success").Observe(duration.Seconds())

	if len(results) == 0 {
		return geo.Coordinate{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, address)
	}

	coord, err := parseCoordinate(results[0])
	if err != nil {
		g.logger.Warn("Geocoder returned unparseable coordinates",
			zap.String("address", address), zap.Error(err))
		return geo.Coordinate{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, address)
	}

	return coord, nil
}

// HealthCheck verifies API availability via the status endpoint.
func (g *Geocoder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/status", http.NoBody)
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("geocoder status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoder status %d", resp.StatusCode)
	}
	return nil
}

func parseCoordinate(r searchResult) (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if !coord.Valid() {
		return geo.Coordinate{}, fmt.Errorf("coordinate out of range: %f, %f", lat, lon)
	}
	return coord, nil
}
