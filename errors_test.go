package lshdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/lshdb/internal/index"
	"github.com/hupe1980/lshdb/internal/signature"
	"github.com/hupe1980/lshdb/internal/staging"
	"github.com/hupe1980/lshdb/vector"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	cases := []struct {
		in   error
		want error
	}{
		{fmt.Errorf("get: %w", index.ErrNotFound), ErrNotFound},
		{index.ErrCapacityExceeded, ErrCapacityExceeded},
		{index.ErrUnsupported, ErrUnsupported},
		{signature.ErrLengthMismatch, ErrLengthMismatch},
		{staging.ErrWordsMismatch, ErrLengthMismatch},
		{fmt.Errorf("hyperplane 3: %w", vector.ErrLengthMismatch), ErrLengthMismatch},
		{index.ErrStorage, ErrStorageFailure},
		{index.ErrUnknownReference, ErrStorageFailure},
		{staging.ErrInvalidHeader, ErrStorageFailure},
	}
	for _, tc := range cases {
		got := translateError(tc.in)
		assert.ErrorIs(t, got, tc.want)
		assert.ErrorIs(t, got, tc.in)
	}

	other := errors.New("other")
	assert.Same(t, other, translateError(other))
}

func TestErrDimensionMismatch(t *testing.T) {
	var err error = &ErrDimensionMismatch{Expected: 3, Actual: 4}
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.EqualError(t, err, "dimension mismatch: expected 3, got 4")
	assert.Nil(t, errors.Unwrap(err))
	assert.Same(t, err, translateError(err))
}

func TestStorageError(t *testing.T) {
	assert.NoError(t, storageError("write", nil))

	err := storageError("write block", errors.New("disk full"))
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorContains(t, err, "write block")

	assert.Same(t, err, storageError("again", err))
}
