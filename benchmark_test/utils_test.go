package benchmark_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/lshdb"
	"github.com/hupe1980/lshdb/testutil"
	"github.com/hupe1980/lshdb/vector"
)

const (
	dimSmall  = 64
	dimMedium = 256
	dimLarge  = 1024

	sizeSmall  = 5_000
	sizeMedium = 20_000

	maxAbs = 100
)

func benchConfig(b *testing.B, dim int) lshdb.Config {
	b.Helper()
	cfg := lshdb.DefaultConfig()
	cfg.Path = filepath.Join(b.TempDir(), "vdb")
	cfg.SignatureBits = 512
	cfg.BlockCapacity = 500
	cfg.Tables = 4
	cfg.InputDimension = dim
	return cfg
}

// openBenchDB builds a database over n clustered vectors and returns it
// with the data.
func openBenchDB(b *testing.B, cfg lshdb.Config, n int, opts ...lshdb.Option) (*lshdb.DB, []*vector.Dense) {
	b.Helper()
	data := testutil.NewRNG(42).ClusteredVectors(n, cfg.InputDimension, 50, maxAbs, 10)

	opts = append([]lshdb.Option{lshdb.WithLogger(lshdb.NoopLogger()), lshdb.WithSeed(7)}, opts...)
	db, err := lshdb.New(cfg, opts...)
	if err != nil {
		b.Fatal(err)
	}
	if err := db.BulkLoad(context.Background(), vector.Slice(data)); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })
	return db, data
}

// makeQueries perturbs stored vectors so every query has near neighbors.
func makeQueries(data []*vector.Dense, n int) []*vector.Dense {
	rng := testutil.NewRNG(99)
	queries := make([]*vector.Dense, n)
	for i := range queries {
		src := data[rng.IntN(len(data))]
		queries[i] = vector.NewDense(int32(-i-1), rng.Perturb(src.Dense(), len(src.Dense())/20, maxAbs))
	}
	return queries
}
