package index

import "errors"

var (
	// ErrNotFound is returned when no entry has the requested signature.
	ErrNotFound = errors.New("index: key not found")

	// ErrCapacityExceeded is returned when a block would hold more entries
	// than its capacity. It signals a broken invariant.
	ErrCapacityExceeded = errors.New("index: block capacity exceeded")

	// ErrUnsupported is returned by operations the index variant cannot
	// perform.
	ErrUnsupported = errors.New("index: unsupported operation")

	// ErrStorage wraps every failure to read or write block files.
	ErrStorage = errors.New("index: storage failure")

	// ErrUnsorted is returned when BulkLoad receives unsorted entries.
	ErrUnsorted = errors.New("index: entries not sorted")

	// ErrUnknownReference is returned when a reference index meets an id
	// its lookup cannot resolve.
	ErrUnknownReference = errors.New("index: unresolvable reference")
)
