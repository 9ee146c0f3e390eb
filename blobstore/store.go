// Package blobstore persists compression artifacts outside the in-memory
// index. Artifacts are immutable once written; the store is a flat keyspace
// of byte blobs addressed by entity address and compression stage.
package blobstore

import (
	"context"
	"os"
	"path"

	"github.com/stat7-io/stat7/bitchain"
)

// ErrNotFound is returned when an artifact does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for persisting immutable artifact blobs.
type Store interface {
	// Put writes a blob atomically, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads a whole blob. Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes a blob. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key derives the store key for an entity's artifact at a stage. The first
// two address bytes fan keys out so filesystem-backed stores avoid a single
// giant directory.
func Key(address string, stage bitchain.Stage) string {
	fan := "00"
	if len(address) >= 2 {
		fan = address[:2]
	}
	return path.Join(fan, address) + "." + string(stage)
}

// EntityPrefix returns the key prefix covering every stage of one address.
// Useful with List and Delete for whole-entity cleanup.
func EntityPrefix(address string) string {
	fan := "00"
	if len(address) >= 2 {
		fan = address[:2]
	}
	return path.Join(fan, address) + "."
}
