package lshdb

import (
	"fmt"
	"path/filepath"

	"github.com/hupe1980/lshdb/internal/codec"
	"github.com/hupe1980/lshdb/internal/compress"
	"github.com/hupe1980/lshdb/internal/fs"
	"github.com/hupe1980/lshdb/internal/index"
	"github.com/hupe1980/lshdb/internal/lsh"
	"github.com/hupe1980/lshdb/internal/permutation"
)

const (
	indexesFile      = "indexes.ser"
	lshFunctionFile  = "lsh-func.ser"
	permutationsFile = "permutation-funcs.ser"
	propertiesFile   = "vector-db.properties"

	signatureStorageDir = "signature_storage"
	indexDir            = "index"
)

// Recovery file magics.
const (
	indexesMagic      = 0x4C534849 // "LSHI"
	lshFunctionMagic  = 0x4C534846 // "LSHF"
	permutationsMagic = 0x4C534850 // "LSHP"
	recoveryVersion   = 1
)

func tableDir(base string, table int) string {
	return filepath.Join(base, indexDir, fmt.Sprintf("blockIndex%d", table))
}

func writeRecoveryFile(fsys fs.FileSystem, path string, magic uint32, payload []byte) error {
	data, _, err := codec.EncodeFrame(codec.Header{
		Magic:       magic,
		Version:     recoveryVersion,
		Compression: compress.ZSTD,
	}, payload)
	if err != nil {
		return storageError("encode "+filepath.Base(path), err)
	}
	if err := fs.WriteFile(fsys, path, data); err != nil {
		return storageError("write "+filepath.Base(path), err)
	}
	return nil
}

func readRecoveryFile(fsys fs.FileSystem, path string, magic uint32) ([]byte, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, storageError("read "+filepath.Base(path), err)
	}
	_, payload, err := codec.DecodeFrame(data, magic, recoveryVersion)
	if err != nil {
		return nil, storageError("decode "+filepath.Base(path), err)
	}
	return payload, nil
}

// saveRecovery persists everything Recover needs. Callers hold d.mu.
func (d *DB) saveRecovery() error {
	metas := codec.NewWriter(256)
	metas.Uint32(uint32(len(d.indexes)))
	for _, ix := range d.indexes {
		m, err := ix.Meta().MarshalBinary()
		if err != nil {
			return storageError("encode index metadata", err)
		}
		metas.Bytes(m)
	}
	if err := writeRecoveryFile(d.fsys, d.path(indexesFile), indexesMagic, metas.Data()); err != nil {
		return err
	}

	props, err := d.cfg.marshalProperties(buildInfo{ID: d.buildID, Count: d.count})
	if err != nil {
		return storageError("encode properties", err)
	}
	if err := fs.WriteFile(d.fsys, d.path(propertiesFile), props); err != nil {
		return storageError("write "+propertiesFile, err)
	}

	perms, err := permutation.Marshal(d.perms)
	if err != nil {
		return storageError("encode permutations", err)
	}
	if err := writeRecoveryFile(d.fsys, d.path(permutationsFile), permutationsMagic, perms); err != nil {
		return err
	}

	fn, err := d.lsh.MarshalBinary()
	if err != nil {
		return storageError("encode hash function", err)
	}
	return writeRecoveryFile(d.fsys, d.path(lshFunctionFile), lshFunctionMagic, fn)
}

type recoveryState struct {
	cfg   Config
	build buildInfo
	lsh   *lsh.Function
	perms []permutation.Function
	metas []index.Meta
}

func loadRecovery(fsys fs.FileSystem, base Config) (*recoveryState, error) {
	var st recoveryState

	props, err := fs.ReadFile(fsys, filepath.Join(base.Path, propertiesFile))
	if err != nil {
		return nil, storageError("read "+propertiesFile, err)
	}
	// The stored path is informational; the database is opened where it is.
	st.cfg, st.build, err = unmarshalProperties(props, base)
	if err != nil {
		return nil, storageError("decode "+propertiesFile, err)
	}
	st.cfg.Path = base.Path
	if err := st.cfg.Validate(); err != nil {
		return nil, storageError("validate "+propertiesFile, err)
	}

	data, err := readRecoveryFile(fsys, filepath.Join(base.Path, permutationsFile), permutationsMagic)
	if err != nil {
		return nil, err
	}
	if st.perms, err = permutation.Unmarshal(data); err != nil {
		return nil, storageError("decode permutations", err)
	}

	data, err = readRecoveryFile(fsys, filepath.Join(base.Path, lshFunctionFile), lshFunctionMagic)
	if err != nil {
		return nil, err
	}
	st.lsh = new(lsh.Function)
	if err := st.lsh.UnmarshalBinary(data); err != nil {
		return nil, storageError("decode hash function", err)
	}

	data, err = readRecoveryFile(fsys, filepath.Join(base.Path, indexesFile), indexesMagic)
	if err != nil {
		return nil, err
	}
	r := codec.NewReader(data)
	n := int(r.Uint32())
	for i := 0; i < n && r.Err() == nil; i++ {
		var m index.Meta
		if err := m.UnmarshalBinary(r.Bytes()); err != nil {
			return nil, storageError(fmt.Sprintf("decode index %d metadata", i), err)
		}
		st.metas = append(st.metas, m)
	}
	if err := r.Err(); err != nil {
		return nil, storageError("decode index metadata", err)
	}

	switch {
	case len(st.perms) != st.cfg.Tables || len(st.metas) != st.cfg.Tables:
		return nil, storageError("check tables", fmt.Errorf("properties name %d tables, found %d permutations and %d indexes",
			st.cfg.Tables, len(st.perms), len(st.metas)))
	case st.lsh.Bits() != st.cfg.SignatureBits:
		return nil, storageError("check hash function", fmt.Errorf("hash function has %d bits, properties say %d",
			st.lsh.Bits(), st.cfg.SignatureBits))
	}
	return &st, nil
}
