package lshdb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lshdb/internal/index"
	"github.com/hupe1980/lshdb/internal/lsh"
	"github.com/hupe1980/lshdb/internal/signature"
	"github.com/hupe1980/lshdb/internal/staging"
	"github.com/hupe1980/lshdb/vector"
)

// ErrNotFound, ErrCapacityExceeded and ErrUnsupported classify failures
// of the block indexes. DB methods never look up or delete single keys, so
// they surface only ErrCapacityExceeded, from a Create that broke a block
// invariant. The others stay exported so that translated index errors keep
// a stable identity.
var (
	// ErrNotFound is returned when a key has no entry.
	ErrNotFound = errors.New("not found")
	// ErrLengthMismatch is returned when signatures or vectors of different
	// lengths are combined.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrCapacityExceeded signals a block holding more entries than its
	// capacity. It indicates a bug, not a user error.
	ErrCapacityExceeded = errors.New("block capacity exceeded")
	// ErrStorageFailure wraps I/O and decoding failures.
	ErrStorageFailure = errors.New("storage failure")
	// ErrUnsupported is returned for operations a component does not
	// implement.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrInvalidState is returned when an operation is not allowed in the
	// database's current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)

// ErrDimensionMismatch indicates a vector whose dimensionality differs from
// the database input size. It matches ErrLengthMismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrLengthMismatch }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *ErrDimensionMismatch
	if errors.As(err, &dm) {
		return err
	}

	switch {
	case errors.Is(err, index.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, index.ErrCapacityExceeded):
		return fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	case errors.Is(err, index.ErrUnsupported):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	case errors.Is(err, signature.ErrLengthMismatch),
		errors.Is(err, lsh.ErrDimensionMismatch),
		errors.Is(err, vector.ErrLengthMismatch),
		errors.Is(err, staging.ErrWordsMismatch):
		return fmt.Errorf("%w: %w", ErrLengthMismatch, err)
	case errors.Is(err, index.ErrStorage),
		errors.Is(err, index.ErrUnknownReference),
		errors.Is(err, staging.ErrInvalidHeader):
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return err
}

// storageError marks err as a storage failure unless it already is one.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
