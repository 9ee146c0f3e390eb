package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Local is a deterministic in-process embedding provider. It hashes word
// tokens into a fixed number of buckets and L2-normalizes the result, so
// equal texts always embed identically and token overlap shows up as cosine
// similarity. It exists for offline operation and reproducible tests, not
// semantic quality.
type Local struct {
	dim int
}

// NewLocal creates a local provider emitting dim-length vectors.
func NewLocal(dim int) *Local {
	if dim <= 0 {
		dim = 64
	}
	return &Local{dim: dim}
}

// Embed implements Provider.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, l.dim)
	for _, tok := range Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum) % l.dim
		if bucket < 0 {
			bucket += l.dim
		}
		// Sign bit from the hash keeps buckets from only accumulating.
		if sum&0x80000000 != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// Dimension implements Provider.
func (l *Local) Dimension() int { return l.dim }

// Name implements Provider.
func (l *Local) Name() string { return string(KindLocal) }

// Tokenize lower-cases text and splits it on non-letter, non-digit runes.
// Shared with the fragment and cluster stages so similarity measures agree
// with the embedding space.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Cosine returns the cosine similarity of two vectors, 0 for mismatched or
// zero-norm inputs.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}
