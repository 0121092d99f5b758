package lshdb

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"
)

// Property keys of vector-db.properties.
const (
	propSignatureBits   = "lsh.size"
	propBlockCapacity   = "index.block.size"
	propTables          = "index.permutations"
	propPath            = "path"
	propStoreSignatures = "store_signatures"
	propParallelHashing = "lsh.parallel"
	propParallelSorting = "sorting.parallel"
	propInputDimension  = "input.size"
	propReferenceTables = "index.reference"
	propBuildID         = "build.id"
	propBuildCount      = "build.count"
)

// Config holds the persisted database settings.
type Config struct {
	// SignatureBits is the number of hyperplanes, and so signature bits.
	// Multiples of 64 use the signature words fully.
	SignatureBits int `yaml:"signature_bits"`
	// BlockCapacity is the maximum number of entries per block file.
	BlockCapacity int `yaml:"block_capacity"`
	// Tables is the number of independently permuted indexes.
	Tables int `yaml:"tables"`
	// Path is the database directory.
	Path string `yaml:"path"`
	// StoreSignatures stages signatures on disk instead of in memory.
	StoreSignatures bool `yaml:"store_signatures"`
	// ParallelHashing hashes input vectors on a worker pool.
	ParallelHashing bool `yaml:"parallel_hashing"`
	// ParallelSorting sorts table entries with a fork/join quicksort.
	ParallelSorting bool `yaml:"parallel_sorting"`
	// InputDimension is the vector dimensionality. Zero takes it from the
	// first submitted vector.
	InputDimension int `yaml:"input_dimension"`
	// ReferenceTables makes tables after the first store ids only and
	// resolve signatures through the first table.
	ReferenceTables bool `yaml:"reference_tables"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		SignatureBits:   1024,
		BlockCapacity:   1000,
		Tables:          1,
		Path:            ".vdb",
		ParallelHashing: true,
		ParallelSorting: true,
	}
}

// Validate checks c.
func (c Config) Validate() error {
	switch {
	case c.SignatureBits <= 0:
		return fmt.Errorf("%w: signature bits must be positive, got %d", ErrInvalidConfig, c.SignatureBits)
	case c.BlockCapacity < 2:
		return fmt.Errorf("%w: block capacity must be at least 2, got %d", ErrInvalidConfig, c.BlockCapacity)
	case c.Tables < 1:
		return fmt.Errorf("%w: at least one table is required, got %d", ErrInvalidConfig, c.Tables)
	case c.InputDimension < 0:
		return fmt.Errorf("%w: input dimension must not be negative, got %d", ErrInvalidConfig, c.InputDimension)
	case c.Path == "":
		return fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	return nil
}

// LoadConfigFile reads a YAML configuration. Missing fields keep their
// DefaultConfig values.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// buildInfo is recorded next to the configuration after Create.
type buildInfo struct {
	ID    string
	Count int
}

func (c Config) marshalProperties(b buildInfo) ([]byte, error) {
	f := ini.Empty()
	sec := f.Section(ini.DefaultSection)
	sec.Comment = "Written by lshdb. Do not edit."
	for _, kv := range [][2]string{
		{propSignatureBits, fmt.Sprint(c.SignatureBits)},
		{propBlockCapacity, fmt.Sprint(c.BlockCapacity)},
		{propTables, fmt.Sprint(c.Tables)},
		{propPath, c.Path},
		{propStoreSignatures, fmt.Sprint(c.StoreSignatures)},
		{propParallelHashing, fmt.Sprint(c.ParallelHashing)},
		{propParallelSorting, fmt.Sprint(c.ParallelSorting)},
		{propInputDimension, fmt.Sprint(c.InputDimension)},
		{propReferenceTables, fmt.Sprint(c.ReferenceTables)},
		{propBuildID, b.ID},
		{propBuildCount, fmt.Sprint(b.Count)},
	} {
		if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshalProperties reads a properties snapshot. Keys that are absent
// keep the values of base.
func unmarshalProperties(data []byte, base Config) (Config, buildInfo, error) {
	f, err := ini.Load(data)
	if err != nil {
		return Config{}, buildInfo{}, err
	}
	sec := f.Section(ini.DefaultSection)
	cfg := base
	var info buildInfo

	ints := map[string]*int{
		propSignatureBits:  &cfg.SignatureBits,
		propBlockCapacity:  &cfg.BlockCapacity,
		propTables:         &cfg.Tables,
		propInputDimension: &cfg.InputDimension,
		propBuildCount:     &info.Count,
	}
	for name, dst := range ints {
		if !sec.HasKey(name) {
			continue
		}
		v, err := sec.Key(name).Int()
		if err != nil {
			return Config{}, buildInfo{}, fmt.Errorf("property %s: %w", name, err)
		}
		*dst = v
	}
	bools := map[string]*bool{
		propStoreSignatures: &cfg.StoreSignatures,
		propParallelHashing: &cfg.ParallelHashing,
		propParallelSorting: &cfg.ParallelSorting,
		propReferenceTables: &cfg.ReferenceTables,
	}
	for name, dst := range bools {
		if !sec.HasKey(name) {
			continue
		}
		v, err := sec.Key(name).Bool()
		if err != nil {
			return Config{}, buildInfo{}, fmt.Errorf("property %s: %w", name, err)
		}
		*dst = v
	}
	info.ID = sec.Key(propBuildID).String()
	return cfg, info, nil
}
