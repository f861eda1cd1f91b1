package http

import (
	"strconv"
	"sync/atomic"

	"carteira/internal/metrics"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// countingMetrics records cache lookups on top of the real collectors.
type countingMetrics struct {
	*metrics.Metrics
	hits, misses atomic.Int64
}

func (m *countingMetrics) IncCacheHit(cache string) {
	m.hits.Add(1)
	m.Metrics.IncCacheHit(cache)
}

func (m *countingMetrics) IncCacheMiss(cache string) {
	m.misses.Add(1)
	m.Metrics.IncCacheMiss(cache)
}
