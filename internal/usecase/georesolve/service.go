// Package georesolve turns candidate addresses into coordinates with a
// bounded fan-out so a large pool does not hammer the geocoder.
package georesolve

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain/geo"
)

// Service resolves addresses in bulk. A failed lookup leaves the address
// unresolved instead of failing the whole batch.
type Service struct {
	geocoder    Geocoder
	concurrency int
	logger      *zap.Logger
}

// New creates a resolution service. concurrency caps in-flight geocoder
// calls per batch; values below 1 are treated as 1.
func New(geocoder Geocoder, concurrency int, logger *zap.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		geocoder:    geocoder,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Resolve looks up a single address.
func (s *Service) Resolve(ctx context.Context, address string) (geo.Coordinate, error) {
	return s.geocoder.Geocode(ctx, address)
}

// ResolveAll resolves a batch of addresses and returns coordinates keyed
// by the original address. Duplicates are looked up once. Addresses that
// fail to resolve are absent from the result.
func (s *Service) ResolveAll(ctx context.Context, addresses []string) map[string]geo.Coordinate {
	unique := dedupe(addresses)
	if len(unique) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		resolved = make(map[string]geo.Coordinate, len(unique))
		wg       sync.WaitGroup
		sem      = make(chan struct{}, s.concurrency)
	)

	for _, addr := range unique {
		wg.Add(1)
		sem <- struct{}{}

		go func(addr string) {
			defer wg.Done()
			defer func() { <-sem }()

			coord, err := s.geocoder.Geocode(ctx, addr)
			if err != nil {
				s.logger.Debug("Address left unresolved",
					zap.String("address", addr), zap.Error(err))
				return
			}

			mu.Lock()
			resolved[addr] = coord
			mu.Unlock()
		}(addr)
	}

	wg.Wait()
	return resolved
}

// dedupe drops empty and repeated addresses while keeping first-seen order.
func dedupe(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if strings.TrimSpace(a) == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
