package telemetry

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Sink is the append-only store the collector's persistence step writes
// to. Keyed by request id, queryable by recency.
type Sink interface {
	Append(ctx context.Context, metrics *RequestMetrics) error
	Recent(ctx context.Context, limit int) ([]RequestMetrics, error)
}

// MemorySink keeps recent request metrics in process memory with TTL
// eviction. Good enough for development and for the offline simulator.
type MemorySink struct {
	mu    sync.Mutex
	cache *gocache.Cache
	order []string // request ids, oldest first
}

func NewMemorySink(retention time.Duration) *MemorySink {
	return &MemorySink{
		cache: gocache.New(retention, retention),
	}
}

func (s *MemorySink) Append(ctx context.Context, metrics *RequestMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(metrics.RequestID, *metrics, gocache.DefaultExpiration)
	s.order = append(s.order, metrics.RequestID)

	// Drop order entries whose cache items already expired.
	if len(s.order) > 1024 {
		compact := s.order[:0]
		for _, id := range s.order {
			if _, found := s.cache.Get(id); found {
				compact = append(compact, id)
			}
		}
		s.order = compact
	}
	return nil
}

func (s *MemorySink) Recent(ctx context.Context, limit int) ([]RequestMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RequestMetrics, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(results) < limit; i-- {
		if raw, found := s.cache.Get(s.order[i]); found {
			if m, ok := raw.(RequestMetrics); ok {
				results = append(results, m)
			}
		}
	}
	return results, nil
}
