package lshdb

import (
	"log/slog"

	"github.com/hupe1980/lshdb/internal/compress"
	"github.com/hupe1980/lshdb/internal/fs"
)

// Compression selects how block files are compressed.
type Compression = compress.Type

// Block compression modes.
const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	return compress.Parse(name)
}

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	fsys              fs.FileSystem
	compression       Compression
	cacheBlocks       int
	memoryLimit       int64
	ioLimit           int64
	workers           int
	seed              uint64
	seeded            bool
	sparseHyperplanes bool
	sortThreshold     int
}

// Option configures runtime behavior that is not persisted with the
// database.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lshdb.NewJSONLogger(slog.LevelInfo)
//	db, _ := lshdb.New(cfg, lshdb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lshdb.BasicMetricsCollector{}
//	db, _ := lshdb.New(cfg, lshdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCompression sets the block file compression used by Create.
// Recovered databases keep the compression they were built with.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCacheBlocks bounds the number of decoded blocks kept in memory across
// all tables. Zero or less keeps every loaded block.
func WithCacheBlocks(n int) Option {
	return func(o *options) {
		o.cacheBlocks = n
	}
}

// WithResourceLimits bounds the memory used by cached blocks and the rate
// of block file writes in bytes per second. Zero means unlimited. The
// memory limit only applies together with WithCacheBlocks.
func WithResourceLimits(memoryBytes, ioBytesPerSec int64) Option {
	return func(o *options) {
		o.memoryLimit = memoryBytes
		o.ioLimit = ioBytesPerSec
	}
}

// WithWorkers sets the size of the parallel hashing and sorting pools.
// Defaults to the number of CPUs.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSeed makes hyperplanes and permutations reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithSparseHyperplanes keeps about one percent of hyperplane components,
// trading accuracy for hashing speed on high-dimensional input.
func WithSparseHyperplanes() Option {
	return func(o *options) {
		o.sparseHyperplanes = true
	}
}

// WithSortThreshold sets the partition size below which the parallel sort
// sorts directly.
func WithSortThreshold(n int) Option {
	return func(o *options) {
		o.sortThreshold = n
	}
}

func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fsys:             fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
