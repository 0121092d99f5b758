// Package prometheus exports lshdb operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := lshprom.NewCollector(reg, "lshdb")
//	db, _ := lshdb.New(cfg, lshdb.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/lshdb"
)

var _ lshdb.MetricsCollector = (*Collector)(nil)

// Collector implements lshdb.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency   *prom.HistogramVec
	ingested    prom.Counter
	queryHits   prom.Histogram
	candidates  prom.Histogram
	cacheHits   prom.Gauge
	cacheMisses prom.Gauge
	evictions   prom.Gauge
	resident    prom.Gauge
	cacheMemory prom.Gauge
}

// NewCollector creates the metrics under namespace and registers them
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prom.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of database operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "status"}),
		ingested: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_vectors_total",
			Help:      "Vectors hashed into the staging store",
		}),
		queryHits: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Results returned per query",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}),
		candidates: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "query_candidates",
			Help:      "Distinct candidates inspected per query",
			Buckets:   prom.ExponentialBuckets(1, 2, 14),
		}),
		cacheHits: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "block_cache_hits",
			Help:      "Block cache hits across all tables",
		}),
		cacheMisses: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "block_cache_misses",
			Help:      "Block cache misses across all tables",
		}),
		evictions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "block_cache_evictions",
			Help:      "Blocks released from residency",
		}),
		resident: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "block_cache_resident_blocks",
			Help:      "Blocks currently held under the residency limit",
		}),
		cacheMemory: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "block_cache_memory_bytes",
			Help:      "Memory reserved by resident blocks",
		}),
	}
	for _, col := range []prom.Collector{
		c.opLatency, c.ingested, c.queryHits, c.candidates,
		c.cacheHits, c.cacheMisses, c.evictions, c.resident, c.cacheMemory,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordIngest implements lshdb.MetricsCollector.
func (c *Collector) RecordIngest(count int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("ingest", status(err)).Observe(d.Seconds())
	c.ingested.Add(float64(count))
}

// RecordCreate implements lshdb.MetricsCollector.
func (c *Collector) RecordCreate(_, _ int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("create", status(err)).Observe(d.Seconds())
}

// RecordQuery implements lshdb.MetricsCollector.
func (c *Collector) RecordQuery(candidates, results int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("query", status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.candidates.Observe(float64(candidates))
	c.queryHits.Observe(float64(results))
}

// RecordCache implements lshdb.MetricsCollector.
func (c *Collector) RecordCache(s lshdb.CacheStats) {
	c.cacheHits.Set(float64(s.Hits))
	c.cacheMisses.Set(float64(s.Misses))
	c.evictions.Set(float64(s.Evictions))
	c.resident.Set(float64(s.Blocks))
	c.cacheMemory.Set(float64(s.MemoryBytes))
}
