package retrieval

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/stat7-io/stat7/address"
	"github.com/stat7-io/stat7/coordinate"
)

// dimIndex is the secondary structure for a single dimension: a sorted slice
// of distinct values aligned with roaring posting bitmaps. Every STAT7
// dimension is low-cardinality after keying (enums, small ints, quantized
// adjacency), so the value column stays short and binary search plus bitmap
// union answers ranges in O(log v + m).
//
// Each dimIndex carries its own lock; writes to one dimension never block
// reads on another.
type dimIndex struct {
	mu sync.RWMutex

	// keyFn collapses raw values onto index keys. Identity for discrete
	// dimensions; bucket lower bound for adjacency.
	keyFn func(float64) float64

	values   []float64 // sorted distinct keys
	postings map[float64]*roaring.Bitmap
}

func identityKey(v float64) float64 { return v }

func adjacencyKey(v float64) float64 {
	return float64(address.QuantizeAdjacency(v)) / address.AdjacencyBuckets
}

func newDimIndexFor(d coordinate.Dimension) *dimIndex {
	keyFn := identityKey
	if d == coordinate.DimAdjacency {
		keyFn = adjacencyKey
	}
	return &dimIndex{
		keyFn:    keyFn,
		postings: make(map[float64]*roaring.Bitmap),
	}
}

func (di *dimIndex) add(value float64, row uint32) {
	key := di.keyFn(value)

	di.mu.Lock()
	defer di.mu.Unlock()

	bm, ok := di.postings[key]
	if !ok {
		bm = roaring.New()
		di.postings[key] = bm
		i := sort.SearchFloat64s(di.values, key)
		di.values = append(di.values, 0)
		copy(di.values[i+1:], di.values[i:])
		di.values[i] = key
	}
	bm.Add(row)
}

func (di *dimIndex) remove(value float64, row uint32) {
	key := di.keyFn(value)

	di.mu.Lock()
	defer di.mu.Unlock()

	bm, ok := di.postings[key]
	if !ok {
		return
	}
	bm.Remove(row)
	if bm.IsEmpty() {
		delete(di.postings, key)
		i := sort.SearchFloat64s(di.values, key)
		if i < len(di.values) && di.values[i] == key {
			di.values = append(di.values[:i], di.values[i+1:]...)
		}
	}
}

// queryRange returns a snapshot bitmap of rows whose key falls in
// [keyFn(low), high]. The lower bound is widened to the containing bucket so
// boundary candidates are never missed; callers re-check exact values.
func (di *dimIndex) queryRange(low, high float64) *roaring.Bitmap {
	lowKey := di.keyFn(low)

	di.mu.RLock()
	defer di.mu.RUnlock()

	lo := sort.SearchFloat64s(di.values, lowKey)
	hi := sort.Search(len(di.values), func(i int) bool { return di.values[i] > high })
	if hi <= lo {
		return roaring.New()
	}

	parts := make([]*roaring.Bitmap, 0, hi-lo)
	for _, key := range di.values[lo:hi] {
		parts = append(parts, di.postings[key])
	}
	return roaring.FastOr(parts...)
}

func (di *dimIndex) stats() (cardinality, entries int) {
	di.mu.RLock()
	defer di.mu.RUnlock()

	for _, bm := range di.postings {
		entries += int(bm.GetCardinality())
	}
	return len(di.values), entries
}
