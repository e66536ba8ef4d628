// Package geocache decorates a geocoder with a key-value cache so repeated
// addresses do not hit the upstream service.
package geocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/db"
	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/domain/geo"
)

var cacheKeyPrefix = domain.KeyPrefix + "geo_cache:"

// store is the consumer interface for the geocode cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedGeocoder caches resolved coordinates in a key-value store.
type CachedGeocoder struct {
	inner      domain.Geocoder
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Geocoder,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedGeocoder {
	return &CachedGeocoder{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

type cachedCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocode returns cached coordinates or calls the inner geocoder.
// Only successful resolutions are cached, so transient upstream failures
// and not-found addresses get retried on the next lookup.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	key := c.cacheKey(address)

	if coord, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return coord, nil
	}

	c.incCache("miss")

	coord, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("geocode address: %w", err)
	}

	c.putToCache(ctx, key, coord)
	return coord, nil
}

func (c *CachedGeocoder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedGeocoder) cacheKey(address string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	h := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedGeocoder) getFromCache(ctx context.Context, key string) (geo.Coordinate, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached coordinates", zap.String("key", key), zap.Error(err))
		}
		return geo.Coordinate{}, false
	}

	var cc cachedCoord
	if err := json.Unmarshal(data, &cc); err != nil {
		c.logger.Warn("Failed to parse cached coordinates", zap.String("key", key), zap.Error(err))
		return geo.Coordinate{}, false
	}

	coord := geo.Coordinate{Lat: cc.Lat, Lon: cc.Lon}
	if !coord.Valid() {
		return geo.Coordinate{}, false
	}
	return coord, true
}

func (c *CachedGeocoder) putToCache(ctx context.Context, key string, coord geo.Coordinate) {
	data, err := json.Marshal(cachedCoord{Lat: coord.Lat, Lon: coord.Lon})
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache coordinates", zap.String("key", key), zap.Error(err))
	}
}
