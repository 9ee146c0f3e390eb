package stat7

import (
	"errors"
	"fmt"

	"github.com/stat7-io/stat7/blobstore"
	"github.com/stat7-io/stat7/retrieval"
)

var (
	// ErrNotFound is returned when no entity exists at an address.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned for operations on a closed engine.
	ErrClosed = errors.New("engine closed")

	// ErrNilEntity is returned when a nil entity is submitted.
	ErrNilEntity = errors.New("entity must not be nil")

	// ErrInvalidWeights is returned when hybrid query weights are negative
	// or both zero.
	ErrInvalidWeights = errors.New("query weights must be non-negative and not both zero")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNoArtifactStore is returned when stored-artifact operations run on
	// an engine built without an artifact store.
	ErrNoArtifactStore = errors.New("no artifact store configured")
)

// translateError normalizes subsystem errors into the package taxonomy.
// Typed errors from coordinate, retrieval, and compress pass through so
// callers can use errors.As against them directly.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, retrieval.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
