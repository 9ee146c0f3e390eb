// Package address derives deterministic STAT7 addresses.
//
// An address is a pure function of (coordinates, payload): the seven
// dimensions are serialized into a fixed-width, order-preserving structural
// key, and a SHA-256 digest over the key plus a canonical payload
// fingerprint becomes the address. Encoding holds no state and is safe for
// unbounded concurrent use.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
)

// AdjacencyBuckets is the quantization granularity for the continuous
// adjacency dimension. Buckets are wide enough that semantically close
// entities share structural-key prefixes, and fine enough that bucket
// collisions stay rare.
const AdjacencyBuckets = 64

// Size is the length of an address in hex characters (SHA-256).
const Size = sha256.Size * 2

// fullMask selects all seven dimensions. Reduced masks exist only for the
// dimension-necessity tests in this package.
const fullMask = 1<<7 - 1

// QuantizeAdjacency maps adjacency in [0,1] onto its bucket ordinal.
func QuantizeAdjacency(a float64) int {
	b := int(a * AdjacencyBuckets)
	if b >= AdjacencyBuckets {
		b = AdjacencyBuckets - 1 // adjacency == 1.0 shares the top bucket
	}
	return b
}

// StructuralKey serializes coordinates into the composite fixed-width key
// used as the digest preimage. The key is order-preserving per dimension:
// lexicographic comparison of keys matches numeric comparison of the
// underlying values, which is what makes shared prefixes meaningful for
// range grouping.
//
// StructuralKey does not validate; callers that accept external input must
// go through Encode.
func StructuralKey(c coordinate.Coordinates) string {
	return structuralKeyMasked(c, fullMask)
}

func structuralKeyMasked(c coordinate.Coordinates, mask uint8) string {
	var sb strings.Builder
	sb.Grow(64)
	if mask&(1<<coordinate.DimRealm) != 0 {
		fmt.Fprintf(&sb, "r%02x", uint8(c.Realm))
	}
	if mask&(1<<coordinate.DimLineage) != 0 {
		fmt.Fprintf(&sb, ".l%016x", uint64(c.Lineage))
	}
	if mask&(1<<coordinate.DimAdjacency) != 0 {
		fmt.Fprintf(&sb, ".a%02x", QuantizeAdjacency(c.Adjacency))
	}
	if mask&(1<<coordinate.DimHorizon) != 0 {
		fmt.Fprintf(&sb, ".h%02x", uint8(c.Horizon))
	}
	if mask&(1<<coordinate.DimLuminosity) != 0 {
		fmt.Fprintf(&sb, ".u%02x", uint8(c.Luminosity))
	}
	if mask&(1<<coordinate.DimPolarity) != 0 {
		fmt.Fprintf(&sb, ".p%02x", uint8(c.Polarity))
	}
	if mask&(1<<coordinate.DimDimensionality) != 0 {
		fmt.Fprintf(&sb, ".d%016x", uint64(c.Dimensionality))
	}
	return sb.String()
}

// Encode derives the address for (coordinates, payload).
//
// Every coordinate field is validated first; a field outside its domain
// returns a *coordinate.ErrInvalid and no address. Identical inputs always
// yield identical addresses, across calls and across processes.
func Encode(c coordinate.Coordinates, p bitchain.Payload) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return digest(structuralKeyMasked(c, fullMask), p), nil
}

// digest hashes the structural key and the payload fingerprint, separated
// so key/payload boundaries cannot alias.
func digest(key string, p bitchain.Payload) string {
	h := sha256.New()
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write(p.Fingerprint())
	return hex.EncodeToString(h.Sum(nil))
}

// encodeDropping is the test hook behind the dimension-necessity property:
// it derives an address with one dimension removed from the preimage.
func encodeDropping(c coordinate.Coordinates, p bitchain.Payload, drop coordinate.Dimension) string {
	return digest(structuralKeyMasked(c, fullMask&^(1<<drop)), p)
}
