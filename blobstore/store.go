// Package blobstore persists write-once image payloads keyed by name.
package blobstore

import (
	"context"
	"os"
	"strings"
)

var (
	// ErrNotFound is returned when a blob does not exist. Implementations
	// return an error satisfying errors.Is(err, ErrNotFound).
	ErrNotFound = os.ErrNotExist

	// ErrExists is returned by Put when the name is already taken. Blobs are
	// never overwritten.
	ErrExists = os.ErrExist
)

// Store is a write-once blob store.
type Store interface {
	// Put stores data under name. It fails with ErrExists if name is taken.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the full contents of the named blob.
	Get(ctx context.Context, name string) ([]byte, error)
}

// validName rejects names that could escape the store root.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
