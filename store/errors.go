package store

import "errors"

var (
	// ErrNotFound is returned when the metadata entry or the payload for an
	// id is missing. Both cases are reported the same way.
	ErrNotFound = errors.New("image not found")

	// ErrStorageUnavailable wraps write-path failures of the metadata
	// collection or the payload store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateID is returned by a repository asked to append an id it
	// already holds.
	ErrDuplicateID = errors.New("duplicate image id")

	// ErrCorruptMetadata is returned by the file repository when the
	// metadata file exists but cannot be parsed.
	ErrCorruptMetadata = errors.New("corrupt metadata collection")

	ErrEmptyPayload = errors.New("empty image payload")
)
