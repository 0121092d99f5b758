package prometheus

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lshdb"
	"github.com/hupe1980/lshdb/testutil"
	"github.com/hupe1980/lshdb/vector"
)

func gather(t *testing.T, reg *prom.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestCollector(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg, "test")
	require.NoError(t, err)

	c.RecordIngest(10, time.Millisecond, nil)
	c.RecordIngest(5, time.Millisecond, errors.New("boom"))
	c.RecordQuery(40, 3, time.Millisecond, nil)
	c.RecordCache(lshdb.CacheStats{Hits: 7, Misses: 2, Evictions: 4, Blocks: 3, MemoryBytes: 4096})

	m := gather(t, reg)
	assert.Equal(t, 15.0, m["test_ingested_vectors_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 7.0, m["test_block_cache_hits"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 2.0, m["test_block_cache_misses"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 4.0, m["test_block_cache_evictions"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 3.0, m["test_block_cache_resident_blocks"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 4096.0, m["test_block_cache_memory_bytes"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(1), m["test_query_results"].GetMetric()[0].GetHistogram().GetSampleCount())

	statuses := map[string]uint64{}
	for _, metric := range m["test_operation_latency_seconds"].GetMetric() {
		var op, st string
		for _, l := range metric.GetLabel() {
			switch l.GetName() {
			case "op":
				op = l.GetValue()
			case "status":
				st = l.GetValue()
			}
		}
		statuses[op+"/"+st] = metric.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, map[string]uint64{
		"ingest/success": 1,
		"ingest/error":   1,
		"query/success":  1,
	}, statuses)

	_, err = NewCollector(reg, "test")
	assert.Error(t, err)
}

func TestCollectorWithDatabase(t *testing.T) {
	ctx := context.Background()
	reg := prom.NewRegistry()
	c, err := NewCollector(reg, "lshdb")
	require.NoError(t, err)

	cfg := lshdb.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "vdb")
	cfg.SignatureBits = 128
	cfg.BlockCapacity = 10
	vecs := testutil.NewRNG(1).DenseVectors(40, 32, 50)

	db, err := lshdb.New(cfg, lshdb.WithMetricsCollector(c))
	require.NoError(t, err)
	require.NoError(t, db.BulkLoad(ctx, vector.Slice(vecs)))
	_, err = db.NearNeighbors(ctx, vecs[0], 5, 0)
	require.NoError(t, err)
	db.Stats()

	m := gather(t, reg)
	assert.Equal(t, 40.0, m["lshdb_ingested_vectors_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, uint64(1), m["lshdb_query_candidates"].GetMetric()[0].GetHistogram().GetSampleCount())
	hits := m["lshdb_block_cache_hits"].GetMetric()[0].GetGauge().GetValue()
	misses := m["lshdb_block_cache_misses"].GetMetric()[0].GetGauge().GetValue()
	assert.Positive(t, hits+misses)
}
