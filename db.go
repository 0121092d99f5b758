package lshdb

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lshdb/internal/cache"
	"github.com/hupe1980/lshdb/internal/fs"
	"github.com/hupe1980/lshdb/internal/index"
	"github.com/hupe1980/lshdb/internal/lsh"
	"github.com/hupe1980/lshdb/internal/permutation"
	"github.com/hupe1980/lshdb/internal/resource"
	"github.com/hupe1980/lshdb/internal/signature"
	"github.com/hupe1980/lshdb/internal/sorting"
	"github.com/hupe1980/lshdb/internal/staging"
	"github.com/hupe1980/lshdb/vector"
)

// progressEvery is the ingestion progress log interval in vectors.
const progressEvery = 20000

type state int

const (
	stateUnconfigured state = iota
	stateBuilding
	stateBuilt
	stateRecovered
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUnconfigured:
		return "unconfigured"
	case stateBuilding:
		return "building"
	case stateBuilt:
		return "built"
	case stateRecovered:
		return "recovered"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DB is a locality sensitive hashing vector database.
//
// Ingestion and Create are serialized with each other. Once built or
// recovered, NearNeighbors is safe for concurrent use.
type DB struct {
	cfg       Config
	opts      options
	logger    *Logger
	metrics   MetricsCollector
	fsys      fs.FileSystem
	rc        *resource.Controller
	residency *cache.Residency
	sorter    sorting.Sorter
	rng       *rand.Rand

	mu      sync.RWMutex
	state   state
	dim     int
	lsh     *lsh.Function
	perms   []permutation.Function
	store   staging.Store
	lookup  *staging.SignatureIndex
	indexes []*index.Index
	buildID string
	count   int

	submitted atomic.Int64
}

// New returns an unconfigured database for cfg. Nothing is written until
// the first vector is submitted.
func New(cfg Config, optFns ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
		Workers:            o.workers,
	})
	residency, err := cache.NewResidency(o.cacheBlocks, rc)
	if err != nil {
		return nil, err
	}

	var sorter sorting.Sorter = sorting.Standard{}
	if cfg.ParallelSorting {
		sorter = sorting.Parallel{Threshold: o.sortThreshold, Workers: rc.Workers()}
	}

	seed1, seed2 := rand.Uint64(), rand.Uint64()
	if o.seeded {
		seed1, seed2 = o.seed, o.seed^0x9e3779b97f4a7c15
	}

	return &DB{
		cfg:       cfg,
		opts:      o,
		logger:    o.logger.WithPath(cfg.Path),
		metrics:   o.metricsCollector,
		fsys:      o.fsys,
		rc:        rc,
		residency: residency,
		sorter:    sorter,
		rng:       rand.New(rand.NewPCG(seed1, seed2)),
	}, nil
}

// Open recovers the database stored at path.
func Open(ctx context.Context, path string, optFns ...Option) (*DB, error) {
	cfg := DefaultConfig()
	cfg.Path = path
	d, err := New(cfg, optFns...)
	if err != nil {
		return nil, err
	}
	if err := d.Recover(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Config returns the current configuration. After Recover it reflects the
// stored properties.
func (d *DB) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *DB) path(name string) string {
	return filepath.Join(d.cfg.Path, name)
}

// ensureInitialized creates the hash function, permutations and staging
// store from the first vector. Callers hold d.mu.
func (d *DB) ensureInitialized(first vector.Vector) error {
	if d.state != stateUnconfigured {
		return nil
	}

	dim := d.cfg.InputDimension
	if dim == 0 {
		dim = first.Dimension()
	}
	for _, dir := range []string{d.cfg.Path, d.path(signatureStorageDir), d.path(indexDir)} {
		if err := d.fsys.MkdirAll(dir, 0o755); err != nil {
			return storageError("create "+dir, err)
		}
	}

	fn, err := lsh.NewRandom(d.cfg.SignatureBits, dim,
		lsh.WithRand(d.rng),
		lsh.WithSparseHyperplanes(d.opts.sparseHyperplanes),
		lsh.WithLogger(d.logger.Logger),
	)
	if err != nil {
		return err
	}

	var store staging.Store
	if d.cfg.StoreSignatures {
		ds, err := staging.OpenDiskStore(d.fsys, d.path(signatureStorageDir), fn.Words(), false)
		if err != nil {
			return storageError("open signature storage", err)
		}
		store = ds
	} else {
		store = staging.NewMemoryStore()
	}

	perms := make([]permutation.Function, d.cfg.Tables)
	for i := range perms {
		if i == 0 {
			perms[i] = permutation.NewIdentity(d.cfg.SignatureBits)
		} else {
			perms[i] = permutation.NewRandom(d.cfg.SignatureBits, d.rng)
		}
	}

	d.dim = dim
	d.cfg.InputDimension = dim
	d.lsh = fn
	d.store = store
	d.perms = perms
	d.state = stateBuilding
	d.logger.Debug("database initialized", "dimension", dim, "bits", d.cfg.SignatureBits, "tables", d.cfg.Tables)
	return nil
}

// hash signs v and stages the entry.
func (d *DB) hash(v vector.Vector) error {
	if v.Dimension() != d.dim {
		return &ErrDimensionMismatch{Expected: d.dim, Actual: v.Dimension()}
	}
	e, err := d.lsh.Entry(v)
	if err != nil {
		return err
	}
	if err := d.store.Store(e); err != nil {
		return storageError("stage signature", err)
	}
	return nil
}

// SubmitInputVectors hashes vectors into the staging store without building
// the indexes. It may be called repeatedly before Create. Vector ids must
// be unique across calls.
func (d *DB) SubmitInputVectors(ctx context.Context, vectors iter.Seq[vector.Vector]) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateUnconfigured && d.state != stateBuilding {
		return fmt.Errorf("%w: cannot ingest into a %s database", ErrInvalidState, d.state)
	}

	start := time.Now()
	count := 0
	defer func() {
		err = translateError(err)
		d.metrics.RecordIngest(count, time.Since(start), err)
		d.logger.LogIngest(ctx, count, err)
	}()

	progress := func() {
		if n := d.submitted.Add(1); n%progressEvery == 0 {
			d.logger.LogProgress(ctx, n)
		}
	}

	if !d.cfg.ParallelHashing {
		for v := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.ensureInitialized(v); err != nil {
				return err
			}
			if err := d.hash(v); err != nil {
				return err
			}
			count++
			progress()
		}
		return d.flush()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.rc.Workers())
	var initErr error
	for v := range vectors {
		if gctx.Err() != nil {
			break
		}
		if initErr = d.ensureInitialized(v); initErr != nil {
			break
		}
		count++
		g.Go(func() error {
			if err := d.hash(v); err != nil {
				return err
			}
			progress()
			return nil
		})
	}
	if err := errors.Join(initErr, g.Wait()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.flush()
}

func (d *DB) flush() error {
	if d.store == nil {
		return nil
	}
	return storageError("flush signature storage", d.store.Flush())
}

// BulkLoad submits vectors and builds the indexes.
func (d *DB) BulkLoad(ctx context.Context, vectors iter.Seq[vector.Vector]) error {
	if err := d.SubmitInputVectors(ctx, vectors); err != nil {
		return err
	}
	return d.Create(ctx)
}

// Create builds every table from the staged signatures and persists the
// recovery files. A failed Create leaves the files on disk in an
// undefined state; it may be retried.
func (d *DB) Create(ctx context.Context) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateBuilding {
		return fmt.Errorf("%w: create needs submitted vectors, database is %s", ErrInvalidState, d.state)
	}

	start := time.Now()
	vectors := d.store.Len()
	defer func() {
		err = translateError(err)
		d.metrics.RecordCreate(vectors, d.cfg.Tables, time.Since(start), err)
		d.logger.LogCreate(ctx, d.buildID, d.cfg.Tables, vectors, err)
	}()

	if err := d.store.Close(); err != nil {
		return storageError("close signature storage", err)
	}
	for _, ix := range d.indexes {
		ix.EvictAll()
	}
	d.indexes = nil
	if err := d.fsys.RemoveAll(d.path(indexDir)); err != nil {
		return storageError("clear index directory", err)
	}

	if d.cfg.ReferenceTables && d.cfg.Tables > 1 {
		lookup, err := staging.BuildLookup(d.store)
		if err != nil {
			return storageError("build signature lookup", err)
		}
		d.lookup = lookup
	}

	indexes := make([]*index.Index, d.cfg.Tables)
	permuted := make([]signature.Entry, 0, vectors)
	for i, perm := range d.perms {
		permuted = permuted[:0]
		for e, err := range d.store.All() {
			if err != nil {
				return storageError("read signature storage", err)
			}
			permuted = append(permuted, signature.Entry{Sig: perm.Permute(e.Sig), ID: e.ID})
		}
		if err := d.sorter.Sort(ctx, permuted); err != nil {
			return err
		}

		ix, err := index.New(index.Config{
			Dir:         tableDir(d.cfg.Path, i),
			Words:       d.lsh.Words(),
			Capacity:    d.cfg.BlockCapacity,
			Compression: d.opts.compression,
		}, d.indexOptions(i)...)
		if err != nil {
			return err
		}
		if err := ix.BulkLoad(ctx, permuted); err != nil {
			return err
		}
		indexes[i] = ix
		d.logger.Debug("table created", "table", i, "blocks", ix.Blocks())
	}

	d.indexes = indexes
	d.count = vectors
	d.buildID = uuid.NewString()
	if err := d.saveRecovery(); err != nil {
		return err
	}
	d.state = stateBuilt
	return nil
}

func (d *DB) indexOptions(table int) []index.Option {
	opts := []index.Option{
		index.WithFileSystem(d.fsys),
		index.WithResourceController(d.rc),
		index.WithResidency(d.residency),
		index.WithLogger(d.logger.WithTable(table).Logger),
	}
	if table > 0 && d.lookup != nil {
		opts = append(opts, index.WithReference(d.lookup, d.perms[table]))
	}
	return opts
}

// Recover loads a database previously built at the configured path. The
// stored properties replace the configuration; only the path is kept.
func (d *DB) Recover(ctx context.Context) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateUnconfigured {
		return fmt.Errorf("%w: cannot recover into a %s database", ErrInvalidState, d.state)
	}
	defer func() {
		err = translateError(err)
		d.logger.LogRecover(ctx, d.buildID, d.cfg.Tables, d.count, err)
	}()

	st, err := loadRecovery(d.fsys, d.cfg)
	if err != nil {
		return err
	}
	d.cfg = st.cfg
	d.lsh = st.lsh
	d.perms = st.perms
	d.dim = st.lsh.Dimension()

	indexes := make([]*index.Index, len(st.metas))
	for i, m := range st.metas {
		if m.Kind == index.KindReference {
			if i == 0 {
				return storageError("recover", errors.New("first table must store signatures"))
			}
			if d.lookup == nil {
				if d.lookup, err = d.lookupFrom(indexes[0], st.build.Count); err != nil {
					return err
				}
			}
		}
		ix, err := index.Open(index.Config{Dir: tableDir(d.cfg.Path, i)}, m, d.indexOptions(i)...)
		if err != nil {
			return err
		}
		indexes[i] = ix
	}

	if d.cfg.StoreSignatures {
		ds, err := staging.OpenDiskStore(d.fsys, d.path(signatureStorageDir), st.lsh.Words(), true)
		if err != nil {
			return storageError("open signature storage", err)
		}
		d.store = ds
	} else {
		d.store = staging.NewMemoryStore()
	}

	d.indexes = indexes
	d.buildID = st.build.ID
	d.count = st.build.Count
	d.state = stateRecovered
	return nil
}

// lookupFrom rebuilds the id lookup from the first table, whose
// permutation must be the identity. The table must hold want distinct ids.
func (d *DB) lookupFrom(first *index.Index, want int) (*staging.SignatureIndex, error) {
	if _, ok := d.perms[0].(*permutation.Identity); !ok {
		return nil, storageError("recover", errors.New("first table is permuted"))
	}
	lookup := staging.NewSignatureIndex()
	err := first.Ascend(func(e signature.Entry) bool {
		lookup.Put(e)
		return true
	})
	if err != nil {
		return nil, err
	}
	if n := lookup.Len(); n != want {
		return nil, storageError("recover", fmt.Errorf("first table resolves %d ids, build recorded %d", n, want))
	}
	return lookup, nil
}

// NearNeighbors returns the elements found within beamRadius positions of
// the query signature in any table whose estimated cosine similarity is at
// least minSimilarity. Each id is scored once, by the first table that
// returns it.
func (d *DB) NearNeighbors(ctx context.Context, query vector.Vector, beamRadius int, minSimilarity float64) (_ Results, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.state != stateBuilt && d.state != stateRecovered {
		return nil, fmt.Errorf("%w: cannot query a %s database", ErrInvalidState, d.state)
	}

	start := time.Now()
	results := Results{}
	var seen roaring.Bitmap
	defer func() {
		err = translateError(err)
		d.metrics.RecordQuery(int(seen.GetCardinality()), len(results), time.Since(start), err)
		d.logger.LogQuery(ctx, beamRadius, minSimilarity, len(results), err)
	}()

	if query.Dimension() != d.dim {
		return nil, &ErrDimensionMismatch{Expected: d.dim, Actual: query.Dimension()}
	}
	sig, err := d.lsh.Sign(query)
	if err != nil {
		return nil, err
	}

	for i, ix := range d.indexes {
		permuted := d.perms[i].Permute(sig)
		candidates, err := ix.BeamSearch(permuted, beamRadius)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if !seen.CheckedAdd(uint32(c.ID)) {
				continue
			}
			sim, err := signature.CosineApprox(permuted, c.Sig)
			if err != nil {
				return nil, err
			}
			if sim >= minSimilarity {
				results[c.ID] = sim
			}
		}
	}
	return results, nil
}

// Stats describes a database.
type Stats struct {
	BuildID string
	State   string
	// Vectors is the number of indexed vectors.
	Vectors int
	// Submitted counts vectors hashed by this process.
	Submitted int64
	Tables    int
	// Blocks holds the block count of each table.
	Blocks         []int
	CacheHits      int64
	CacheMisses    int64
	CachedBlocks   int
	CacheEvictions int64
	// CacheMemoryBytes is the memory reserved by resident blocks.
	CacheMemoryBytes int64
}

// Stats returns current counters and reports cache counters to the
// metrics collector.
func (d *DB) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Stats{
		BuildID:          d.buildID,
		State:            d.state.String(),
		Vectors:          d.count,
		Submitted:        d.submitted.Load(),
		Tables:           d.cfg.Tables,
		CachedBlocks:     d.residency.Len(),
		CacheEvictions:   d.residency.Evictions(),
		CacheMemoryBytes: d.rc.MemoryUsage(),
	}
	for _, ix := range d.indexes {
		s.Blocks = append(s.Blocks, ix.Blocks())
		hits, misses := ix.CacheStats()
		s.CacheHits += hits
		s.CacheMisses += misses
	}
	d.metrics.RecordCache(CacheStats{
		Hits:        s.CacheHits,
		Misses:      s.CacheMisses,
		Evictions:   s.CacheEvictions,
		Blocks:      s.CachedBlocks,
		MemoryBytes: s.CacheMemoryBytes,
	})
	return s
}

// EvictCaches drops every cached block. Later queries read blocks from
// disk again.
func (d *DB) EvictCaches() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, ix := range d.indexes {
		ix.EvictAll()
	}
}

// Close releases cached blocks and closes the staging store. Files stay on
// disk.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateClosed {
		return nil
	}
	var errs []error
	if d.store != nil {
		errs = append(errs, storageError("close signature storage", d.store.Close()))
	}
	for _, ix := range d.indexes {
		errs = append(errs, ix.Close())
	}
	d.state = stateClosed
	return translateError(errors.Join(errs...))
}

// DeleteFiles removes the staged signatures and the block files and closes
// the database. Recovery files in the base directory are kept.
func (d *DB) DeleteFiles() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.store != nil {
		errs = append(errs, storageError("clear signature storage", d.store.Clear()))
	}
	for _, ix := range d.indexes {
		errs = append(errs, ix.RemoveFiles())
	}
	d.indexes = nil
	for _, dir := range []string{signatureStorageDir, indexDir} {
		if err := d.fsys.RemoveAll(d.path(dir)); err != nil {
			errs = append(errs, storageError("remove "+dir, err))
		}
	}
	d.state = stateClosed
	return translateError(errors.Join(errs...))
}
