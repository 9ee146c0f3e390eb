// Package retrieval implements the in-memory STAT7 retrieval index: an
// address-keyed primary store plus one range-queryable secondary structure
// per coordinate dimension.
//
// The index is a shared mutable resource designed for read-heavy workloads.
// Exact lookups hash the address onto a bucket shard and take only that
// shard's read lock; writes take the affected shard's write lock plus the
// per-dimension locks of the secondary structures they touch. There is no
// whole-index mutex, so reads are never serialized behind unrelated writes.
package retrieval

import (
	"errors"
	"fmt"
	"hash/fnv"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
)

var (
	// ErrNotFound is returned when an address has no entry.
	ErrNotFound = errors.New("retrieval: address not found")

	// ErrEmptyAddress is returned when an empty address is submitted.
	ErrEmptyAddress = errors.New("retrieval: empty address")
)

// ErrDuplicateAddress indicates an insert under an address that already maps
// to a different entity. The existing mapping is never silently overwritten.
type ErrDuplicateAddress struct {
	Address    string
	ExistingID string
	NewID      string
}

func (e *ErrDuplicateAddress) Error() string {
	return fmt.Sprintf("retrieval: address %s already maps to entity %s (got %s)",
		e.Address, e.ExistingID, e.NewID)
}

// numShards fixes the primary bucket count. Power of two for cheap masking.
const numShards = 64

type entry struct {
	chain *bitchain.BitChain
	row   uint32
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// Index is the STAT7 retrieval index. Construct with New and share freely;
// all methods are safe for concurrent use.
type Index struct {
	shards [numShards]*shard

	// rows maps rowID to entity for secondary-index materialization.
	// sync.Map keeps row reads lock-free alongside bucket-scoped writes.
	rows    sync.Map // uint32 -> *bitchain.BitChain
	nextRow atomic.Uint32

	dims [len(coordinate.Dimensions)]*dimIndex

	size atomic.Int64
}

// New creates an empty index.
func New() *Index {
	ix := &Index{}
	for i := range ix.shards {
		ix.shards[i] = &shard{entries: make(map[string]entry)}
	}
	for i, d := range coordinate.Dimensions {
		ix.dims[i] = newDimIndexFor(d)
	}
	return ix
}

func (ix *Index) shardFor(address string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(address))
	return ix.shards[h.Sum32()&(numShards-1)]
}

// Insert maps address to the entity and registers it in every secondary
// structure. Re-inserting the same entity under its address is idempotent;
// a different entity under an occupied address fails with
// *ErrDuplicateAddress and mutates nothing.
func (ix *Index) Insert(address string, bc *bitchain.BitChain) error {
	if address == "" {
		return ErrEmptyAddress
	}
	if bc == nil {
		return errors.New("retrieval: nil entity")
	}

	s := ix.shardFor(address)
	s.mu.Lock()
	if existing, ok := s.entries[address]; ok {
		s.mu.Unlock()
		if existing.chain.ID == bc.ID {
			return nil // idempotent re-insert
		}
		return &ErrDuplicateAddress{Address: address, ExistingID: existing.chain.ID, NewID: bc.ID}
	}

	row := ix.nextRow.Add(1)
	s.entries[address] = entry{chain: bc, row: row}
	s.mu.Unlock()

	ix.rows.Store(row, bc)
	for i, d := range coordinate.Dimensions {
		ix.dims[i].add(bc.Coordinates.Value(d), row)
	}
	ix.size.Add(1)
	return nil
}

// Lookup returns the entity mapped to address, if any.
func (ix *Index) Lookup(address string) (*bitchain.BitChain, bool) {
	s := ix.shardFor(address)
	s.mu.RLock()
	e, ok := s.entries[address]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.chain, true
}

// Delete removes the address mapping and all secondary entries.
// Deleting an absent address returns ErrNotFound.
func (ix *Index) Delete(address string) error {
	s := ix.shardFor(address)
	s.mu.Lock()
	e, ok := s.entries[address]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.entries, address)
	s.mu.Unlock()

	for i, d := range coordinate.Dimensions {
		ix.dims[i].remove(e.chain.Coordinates.Value(d), e.row)
	}
	ix.rows.Delete(e.row)
	ix.size.Add(-1)
	return nil
}

// Len returns the number of indexed entities.
func (ix *Index) Len() int { return int(ix.size.Load()) }

// RangeQuery returns a lazy, finite sequence of entities whose value on the
// given dimension lies in [low, high], both bounds inclusive. The sequence is
// restartable: each range statement re-runs the scan against the index's
// state at that moment. Results carry no defined order.
//
// For the continuous adjacency dimension the secondary structure is bucketed
// (see the address package); candidates from boundary buckets are re-checked
// against the exact entity value before being yielded.
func (ix *Index) RangeQuery(dim coordinate.Dimension, low, high float64) iter.Seq[*bitchain.BitChain] {
	return func(yield func(*bitchain.BitChain) bool) {
		if int(dim) >= len(ix.dims) || low > high {
			return
		}
		rows := ix.dims[dim].queryRange(low, high)
		it := rows.Iterator()
		for it.HasNext() {
			row := it.Next()
			v, ok := ix.rows.Load(row)
			if !ok {
				continue // deleted between snapshot and yield
			}
			bc := v.(*bitchain.BitChain)
			ev := bc.Coordinates.Value(dim)
			if ev < low || ev > high {
				continue
			}
			if !yield(bc) {
				return
			}
		}
	}
}

// All returns a lazy sequence over every indexed entity. Like RangeQuery it
// is restartable and carries no defined order; entities inserted or deleted
// mid-iteration may or may not be observed.
func (ix *Index) All() iter.Seq[*bitchain.BitChain] {
	return func(yield func(*bitchain.BitChain) bool) {
		ix.rows.Range(func(_, v any) bool {
			return yield(v.(*bitchain.BitChain))
		})
	}
}

// DimensionStats describes one secondary structure.
type DimensionStats struct {
	Dimension   coordinate.Dimension
	Cardinality int // distinct indexed values
	Entries     int // total postings
}

// Stats returns per-dimension secondary index statistics.
func (ix *Index) Stats() []DimensionStats {
	out := make([]DimensionStats, 0, len(ix.dims))
	for i, d := range coordinate.Dimensions {
		card, entries := ix.dims[i].stats()
		out = append(out, DimensionStats{Dimension: d, Cardinality: card, Entries: entries})
	}
	return out
}
