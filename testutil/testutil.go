package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// vocabulary for generated narrative payloads.
var words = []string{
	"gradient", "horizon", "lineage", "resonance", "cluster", "signal",
	"pattern", "decay", "momentum", "saddle", "orbit", "fragment",
	"glyph", "mist", "archive", "genesis", "polarity", "lattice",
	"cascade", "drift", "anchor", "spiral", "threshold", "echo",
}

// Sentence generates a pseudo-random sentence of n words.
func (r *RNG) Sentence(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[r.Intn(len(words))]
	}
	return strings.Join(parts, " ")
}

// Coordinates generates valid random coordinates.
func (r *RNG) Coordinates() coordinate.Coordinates {
	return coordinate.Coordinates{
		Realm:          coordinate.Realm(r.Intn(coordinate.NumRealms)),
		Lineage:        r.Intn(16),
		Adjacency:      r.Float64(),
		Horizon:        coordinate.Horizon(r.Intn(coordinate.NumHorizons)),
		Luminosity:     r.Intn(101),
		Polarity:       coordinate.Polarity(r.Intn(coordinate.NumPolarities)),
		Dimensionality: 1 + r.Intn(4),
	}
}

// Payload generates a random payload of any kind.
func (r *RNG) Payload() bitchain.Payload {
	switch r.Intn(4) {
	case 0:
		return bitchain.TextPayload(r.Sentence(3 + r.Intn(12)))
	case 1:
		state := make(map[string]string, 3)
		for i := 0; i < 3; i++ {
			state[words[r.Intn(len(words))]] = fmt.Sprintf("%d", r.Intn(1000))
		}
		return bitchain.StatePayload(state)
	case 2:
		vec := make([]float64, 4+r.Intn(12))
		for i := range vec {
			vec[i] = r.Float64()*2 - 1
		}
		return bitchain.VectorPayload(vec)
	default:
		b := make([]byte, 8+r.Intn(56))
		for i := range b {
			b[i] = byte(r.Intn(256))
		}
		return bitchain.BytesPayload(b)
	}
}

// Entity generates a random valid entity.
func (r *RNG) Entity() *bitchain.BitChain {
	return &bitchain.BitChain{
		ID:          uuid.NewString(),
		EntityType:  "concept",
		Coordinates: r.Coordinates(),
		Payload:     r.Payload(),
	}
}

// TextEntity generates a random valid entity with a narrative payload.
func (r *RNG) TextEntity() *bitchain.BitChain {
	bc := r.Entity()
	bc.Payload = bitchain.TextPayload(r.Sentence(4 + r.Intn(10)))
	return bc
}

// Corpus generates n random valid entities.
func (r *RNG) Corpus(n int) []*bitchain.BitChain {
	out := make([]*bitchain.BitChain, n)
	for i := range out {
		out[i] = r.Entity()
	}
	return out
}
