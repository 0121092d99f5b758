package benchmark_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/hupe1980/lshdb"
	"github.com/hupe1980/lshdb/testutil"
)

// ============================================================================
// Search Benchmarks
// ============================================================================

// BenchmarkNearNeighborsBeam measures query latency and recall@10 across
// beam radii.
func BenchmarkNearNeighborsBeam(b *testing.B) {
	const k = 10
	cfg := benchConfig(b, dimMedium)
	db, data := openBenchDB(b, cfg, sizeSmall)
	queries := makeQueries(data, 100)
	ctx := context.Background()

	for _, beam := range []int{1, 10, 50, 200} {
		b.Run("beam="+strconv.Itoa(beam), func(b *testing.B) {
			var totalRecall float64
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				q := queries[i%len(queries)]
				results, err := db.NearNeighbors(ctx, q, beam, 0)
				if err != nil {
					b.Fatal(err)
				}

				// Recall on a subset keeps the brute force out of the timing.
				if i < 20 {
					b.StopTimer()
					truth := testutil.BruteForceSearch(data, q.Dense(), k)
					totalRecall += testutil.ComputeRecall(truth, results.IDs())
					b.StartTimer()
				}
			}

			b.StopTimer()
			b.ReportMetric(totalRecall/float64(min(20, b.N)), "recall@10")
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "qps")
		})
	}
}

// BenchmarkNearNeighborsScaling measures query latency as the dataset grows.
func BenchmarkNearNeighborsScaling(b *testing.B) {
	for _, n := range []int{sizeSmall, sizeMedium} {
		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			cfg := benchConfig(b, dimSmall)
			db, data := openBenchDB(b, cfg, n)
			queries := makeQueries(data, 100)
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := db.NearNeighbors(ctx, queries[i%len(queries)], 20, 0.5); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkNearNeighborsColdCache evicts every block before each query so
// blocks are read and decompressed from disk.
func BenchmarkNearNeighborsColdCache(b *testing.B) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		b.Run(name, func(b *testing.B) {
			comp, err := lshdb.ParseCompression(name)
			if err != nil {
				b.Fatal(err)
			}
			cfg := benchConfig(b, dimLarge)
			db, data := openBenchDB(b, cfg, sizeSmall, lshdb.WithCompression(comp))
			queries := makeQueries(data, 50)
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				db.EvictCaches()
				if _, err := db.NearNeighbors(ctx, queries[i%len(queries)], 20, 0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
