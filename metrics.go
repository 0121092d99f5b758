package lshdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metrics/prometheus provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordIngest is called after each SubmitInputVectors call with the
	// number of vectors hashed.
	RecordIngest(count int, duration time.Duration, err error)

	// RecordCreate is called after each index build.
	RecordCreate(vectors, tables int, duration time.Duration, err error)

	// RecordQuery is called after each near neighbor query.
	// candidates counts distinct ids inspected, results those kept.
	RecordQuery(candidates, results int, duration time.Duration, err error)

	// RecordCache reports a snapshot of block cache counters.
	RecordCache(stats CacheStats)
}

// CacheStats is a snapshot of the block caches of all tables.
type CacheStats struct {
	Hits   int64
	Misses int64
	// Evictions counts blocks released from residency, by the limit or by
	// an explicit eviction.
	Evictions int64
	// Blocks is the number of resident blocks under a residency limit.
	Blocks int
	// MemoryBytes is the memory reserved by resident blocks.
	MemoryBytes int64
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordCreate(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordCache(CacheStats)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IngestCalls      atomic.Int64
	IngestVectors    atomic.Int64
	IngestErrors     atomic.Int64
	IngestTotalNanos atomic.Int64
	CreateCount      atomic.Int64
	CreateErrors     atomic.Int64
	CreateTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryCandidates  atomic.Int64
	QueryResults     atomic.Int64
	QueryTotalNanos  atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	CacheEvictions   atomic.Int64
	CacheMemoryBytes atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(count int, duration time.Duration, err error) {
	b.IngestCalls.Add(1)
	b.IngestVectors.Add(int64(count))
	b.IngestTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IngestErrors.Add(1)
	}
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(vectors, tables int, duration time.Duration, err error) {
	b.CreateCount.Add(1)
	b.CreateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(candidates, results int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.QueryCandidates.Add(int64(candidates))
	b.QueryResults.Add(int64(results))
}

// RecordCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCache(stats CacheStats) {
	b.CacheHits.Store(stats.Hits)
	b.CacheMisses.Store(stats.Misses)
	b.CacheEvictions.Store(stats.Evictions)
	b.CacheMemoryBytes.Store(stats.MemoryBytes)
}

// MetricsStats is a point-in-time copy of BasicMetricsCollector.
type MetricsStats struct {
	IngestCalls     int64
	IngestVectors   int64
	IngestErrors    int64
	CreateCount     int64
	CreateErrors    int64
	QueryCount      int64
	QueryErrors     int64
	QueryAvgNanos   int64
	QueryCandidates int64
	QueryResults    int64
	CacheHits       int64
	CacheMisses     int64
	CacheEvictions  int64
	CacheMemory     int64
}

// GetStats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		IngestCalls:     b.IngestCalls.Load(),
		IngestVectors:   b.IngestVectors.Load(),
		IngestErrors:    b.IngestErrors.Load(),
		CreateCount:     b.CreateCount.Load(),
		CreateErrors:    b.CreateErrors.Load(),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryCandidates: b.QueryCandidates.Load(),
		QueryResults:    b.QueryResults.Load(),
		CacheHits:       b.CacheHits.Load(),
		CacheMisses:     b.CacheMisses.Load(),
		CacheEvictions:  b.CacheEvictions.Load(),
		CacheMemory:     b.CacheMemoryBytes.Load(),
	}
	if s.QueryCount > 0 {
		s.QueryAvgNanos = b.QueryTotalNanos.Load() / s.QueryCount
	}
	return s
}
