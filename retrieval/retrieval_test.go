package retrieval

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stat7-io/stat7/address"
	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
	"github.com/stat7-io/stat7/testutil"
)

func indexedCorpus(t *testing.T, n int) (*Index, []*bitchain.BitChain) {
	t.Helper()
	rng := testutil.NewRNG(31)
	ix := New()
	corpus := rng.Corpus(n)
	for _, bc := range corpus {
		addr, err := address.Encode(bc.Coordinates, bc.Payload)
		require.NoError(t, err)
		bc.Address = addr
		require.NoError(t, ix.Insert(addr, bc))
	}
	return ix, corpus
}

func TestInsertLookup(t *testing.T) {
	ix, corpus := indexedCorpus(t, 100)
	require.Equal(t, 100, ix.Len())

	for _, bc := range corpus {
		got, ok := ix.Lookup(bc.Address)
		require.True(t, ok)
		require.Same(t, bc, got)
	}

	_, ok := ix.Lookup("missing")
	require.False(t, ok)
}

func TestInsertEmptyAddress(t *testing.T) {
	ix := New()
	err := ix.Insert("", &bitchain.BitChain{ID: "x"})
	require.ErrorIs(t, err, ErrEmptyAddress)
}

func TestInsertIdempotentSameID(t *testing.T) {
	ix := New()
	bc := &bitchain.BitChain{ID: "same"}
	require.NoError(t, ix.Insert("addr-1", bc))
	require.NoError(t, ix.Insert("addr-1", bc))
	require.Equal(t, 1, ix.Len())
}

func TestInsertDuplicateAddress(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert("addr-1", &bitchain.BitChain{ID: "first"}))

	err := ix.Insert("addr-1", &bitchain.BitChain{ID: "second"})
	var dup *ErrDuplicateAddress
	if !errors.As(err, &dup) {
		t.Fatalf("want *ErrDuplicateAddress, got %v", err)
	}
	require.Equal(t, "addr-1", dup.Address)
	require.Equal(t, "first", dup.ExistingID)
	require.Equal(t, "second", dup.NewID)

	// The original binding is untouched.
	got, ok := ix.Lookup("addr-1")
	require.True(t, ok)
	require.Equal(t, "first", got.ID)
}

func TestDelete(t *testing.T) {
	ix, corpus := indexedCorpus(t, 50)

	victim := corpus[17]
	require.NoError(t, ix.Delete(victim.Address))
	require.Equal(t, 49, ix.Len())

	_, ok := ix.Lookup(victim.Address)
	require.False(t, ok)
	require.ErrorIs(t, ix.Delete(victim.Address), ErrNotFound)

	// Deleted entities stop appearing in range scans.
	for got := range ix.RangeQuery(coordinate.DimAdjacency, 0, 1) {
		if got.ID == victim.ID {
			t.Fatal("deleted entity still reachable through range query")
		}
	}
}

func TestRangeQueryExactBounds(t *testing.T) {
	ix := New()
	for i, lum := range []int{10, 20, 30, 40, 50} {
		bc := &bitchain.BitChain{
			ID: fmt.Sprintf("e-%d", i),
			Coordinates: coordinate.Coordinates{
				Realm:          coordinate.RealmPattern,
				Adjacency:      0.5,
				Horizon:        coordinate.HorizonPeak,
				Luminosity:     lum,
				Polarity:       coordinate.PolarityLogic,
				Dimensionality: 1,
			},
		}
		require.NoError(t, ix.Insert(fmt.Sprintf("addr-%d", i), bc))
	}

	var got []int
	for bc := range ix.RangeQuery(coordinate.DimLuminosity, 20, 40) {
		got = append(got, bc.Coordinates.Luminosity)
	}
	require.ElementsMatch(t, []int{20, 30, 40}, got)

	// Inverted bounds yield nothing.
	for range ix.RangeQuery(coordinate.DimLuminosity, 40, 20) {
		t.Fatal("inverted bounds must be empty")
	}
}

func TestRangeQueryAdjacencyRecheck(t *testing.T) {
	// Two entities in the same adjacency bucket; a range cutting through
	// the bucket must separate them by exact value.
	ix := New()
	mk := func(id string, adj float64) *bitchain.BitChain {
		return &bitchain.BitChain{
			ID: id,
			Coordinates: coordinate.Coordinates{
				Realm:          coordinate.RealmPattern,
				Adjacency:      adj,
				Horizon:        coordinate.HorizonPeak,
				Luminosity:     50,
				Polarity:       coordinate.PolarityLogic,
				Dimensionality: 1,
			},
		}
	}
	require.NoError(t, ix.Insert("a", mk("lo", 0.5000)))
	require.NoError(t, ix.Insert("b", mk("hi", 0.5100)))

	var ids []string
	for bc := range ix.RangeQuery(coordinate.DimAdjacency, 0.505, 0.6) {
		ids = append(ids, bc.ID)
	}
	require.Equal(t, []string{"hi"}, ids)
}

func TestRangeQueryRestartable(t *testing.T) {
	ix, _ := indexedCorpus(t, 60)
	seq := ix.RangeQuery(coordinate.DimAdjacency, 0, 1)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	require.Equal(t, 60, count())
	require.Equal(t, 60, count())
}

func TestRangeQueryEarlyStop(t *testing.T) {
	ix, _ := indexedCorpus(t, 40)

	n := 0
	for range ix.RangeQuery(coordinate.DimAdjacency, 0, 1) {
		n++
		if n == 5 {
			break
		}
	}
	require.Equal(t, 5, n)
}

func TestAll(t *testing.T) {
	ix, corpus := indexedCorpus(t, 25)

	seen := map[string]bool{}
	for bc := range ix.All() {
		seen[bc.ID] = true
	}
	require.Len(t, seen, len(corpus))
}

func TestStats(t *testing.T) {
	ix, _ := indexedCorpus(t, 30)

	stats := ix.Stats()
	require.Len(t, stats, len(coordinate.Dimensions))
	for _, ds := range stats {
		require.Equal(t, 30, ds.Entries)
		require.Greater(t, ds.Cardinality, 0)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	ix := New()
	rng := testutil.NewRNG(77)
	corpus := rng.Corpus(400)
	for _, bc := range corpus {
		addr, err := address.Encode(bc.Coordinates, bc.Payload)
		require.NoError(t, err)
		bc.Address = addr
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; i < len(corpus); i += 8 {
				_ = ix.Insert(corpus[i].Address, corpus[i])
			}
		}()
	}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < len(corpus); i++ {
				ix.Lookup(corpus[i].Address)
				if i%50 == 0 {
					for range ix.RangeQuery(coordinate.DimLuminosity, 0, 100) {
					}
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, len(corpus), ix.Len())
	for _, bc := range corpus {
		_, ok := ix.Lookup(bc.Address)
		require.True(t, ok)
	}
}

func BenchmarkLookup(b *testing.B) {
	for _, size := range []int{10_000, 100_000} {
		b.Run(fmt.Sprintf("n=%d", size), func(b *testing.B) {
			rng := testutil.NewRNG(5)
			ix := New()
			corpus := rng.Corpus(size)
			addrs := make([]string, len(corpus))
			for i, bc := range corpus {
				addr, err := address.Encode(bc.Coordinates, bc.Payload)
				if err != nil {
					b.Fatal(err)
				}
				bc.Address = addr
				addrs[i] = addr
				if err := ix.Insert(addr, bc); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, ok := ix.Lookup(addrs[i%len(addrs)]); !ok {
					b.Fatal("miss")
				}
			}
		})
	}
}

func BenchmarkRangeQuery(b *testing.B) {
	rng := testutil.NewRNG(6)
	ix := New()
	for _, bc := range rng.Corpus(10000) {
		addr, err := address.Encode(bc.Coordinates, bc.Payload)
		if err != nil {
			b.Fatal(err)
		}
		if err := ix.Insert(addr, bc); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		for range ix.RangeQuery(coordinate.DimAdjacency, 0.25, 0.75) {
			n++
		}
		if n == 0 {
			b.Fatal("empty range")
		}
	}
}
