package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the external providers (face API, geocoder).
var (
	FaceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Name:      "face_requests_total",
			Help:      "Total number of face embedding requests",
		},
		[]string{"status"},
	)

	FaceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reunite",
			Name:      "face_request_duration_seconds",
			Help:      "Face embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	GeocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Name:      "geocode_requests_total",
			Help:      "Total number of upstream geocoding requests",
		},
		[]string{"status"},
	)

	GeocodeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reunite",
			Name:      "geocode_request_duration_seconds",
			Help:      "Upstream geocoding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	GeocodeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Name:      "match_requests_total",
			Help:      "Total number of ranking runs by profile",
		},
		[]string{"profile"},
	)

	MatchCandidatesConsidered = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reunite",
			Name:      "match_candidates_considered",
			Help:      "Candidate pool size per ranking run",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"profile"},
	)
)

var externalMetricsRegistered bool

// RegisterExternalMetrics registers provider and ranking metrics. Must be called once from main.
func RegisterExternalMetrics() {
	if externalMetricsRegistered {
		return
	}
	prometheus.MustRegister(FaceRequestsTotal)
	prometheus.MustRegister(FaceRequestDuration)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeRequestDuration)
	prometheus.MustRegister(GeocodeCacheTotal)
	prometheus.MustRegister(MatchRequestsTotal)
	prometheus.MustRegister(MatchCandidatesConsidered)
	externalMetricsRegistered = true
}
