package mmap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block")
	require.NoError(t, os.WriteFile(path, []byte("mapped"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("mapped"), m.Bytes())
	assert.Equal(t, 6, m.Len())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
}

func TestOpenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, m.Bytes())
	assert.NoError(t, m.Close())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	var got []byte
	require.NoError(t, ReadFile(path, func(b []byte) error {
		got = append(got, b...)
		return nil
	}))
	assert.Equal(t, []byte("abc"), got)

	boom := errors.New("boom")
	assert.ErrorIs(t, ReadFile(path, func([]byte) error { return boom }), boom)

	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
