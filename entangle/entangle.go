// Package entangle detects latent ("entangled") relationships between
// addressed entities.
//
// Scoring is pairwise and pure: a resonance score combines coordinate-space
// proximity (adjacency distance, horizon-stage compatibility, polarity
// affinity via a fixed matrix) with luminosity correlation. Detection over a
// corpus is O(n²) by construction; a polarity blocking pre-filter over
// roaring bitmaps skips pairs whose score upper bound falls short of the
// threshold, so pruning never changes the result set.
package entangle

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
)

// Score weights. Adjacency dominates: entanglement is about non-local
// conceptual closeness, and adjacency is the semantic-proximity axis.
const (
	weightAdjacency  = 0.35
	weightPolarity   = 0.25
	weightHorizon    = 0.20
	weightLuminosity = 0.20
)

// polarityAffinity is the fixed compatibility matrix. Symmetric; identical
// polarities resonate fully, complementary ones strongly, opposed ones
// barely.
var polarityAffinity [coordinate.NumPolarities][coordinate.NumPolarities]float64

func init() {
	for i := range polarityAffinity {
		for j := range polarityAffinity[i] {
			polarityAffinity[i][j] = 0.4
		}
		polarityAffinity[i][i] = 1.0
	}
	set := func(a, b coordinate.Polarity, v float64) {
		polarityAffinity[a][b] = v
		polarityAffinity[b][a] = v
	}
	set(coordinate.PolarityLogic, coordinate.PolarityOrder, 0.8)
	set(coordinate.PolarityCreativity, coordinate.PolarityChaos, 0.8)
	set(coordinate.PolarityContribution, coordinate.PolarityCommunity, 0.8)
	set(coordinate.PolarityAchievement, coordinate.PolarityContribution, 0.6)
	set(coordinate.PolarityAchievement, coordinate.PolarityCommunity, 0.5)
	set(coordinate.PolarityLogic, coordinate.PolarityCreativity, 0.3)
	set(coordinate.PolarityLogic, coordinate.PolarityChaos, 0.2)
	set(coordinate.PolarityOrder, coordinate.PolarityChaos, 0.1)
	for p := coordinate.Polarity(0); int(p) < coordinate.NumPolarities; p++ {
		set(coordinate.PolarityBalance, p, 0.7)
	}
	polarityAffinity[coordinate.PolarityBalance][coordinate.PolarityBalance] = 1.0
}

// PolarityAffinity exposes the matrix entry for a pair of polarities.
func PolarityAffinity(a, b coordinate.Polarity) float64 {
	if !a.Valid() || !b.Valid() {
		return 0
	}
	return polarityAffinity[a][b]
}

// Resonance scores how strongly two entities resonate, in [0,1]. Pure and
// symmetric.
func Resonance(a, b *bitchain.BitChain) float64 {
	ca, cb := a.Coordinates, b.Coordinates

	adj := 1 - math.Abs(ca.Adjacency-cb.Adjacency)

	hd := math.Abs(float64(ca.Horizon) - float64(cb.Horizon))
	hor := 1 - hd/float64(coordinate.NumHorizons-1)

	pol := PolarityAffinity(ca.Polarity, cb.Polarity)

	lum := 1 - math.Abs(float64(ca.Luminosity)-float64(cb.Luminosity))/100

	return weightAdjacency*adj + weightPolarity*pol + weightHorizon*hor + weightLuminosity*lum
}

// Options configures Detect.
type Options struct {
	// Exhaustive disables the blocking pre-filter and scores every pair.
	// Pruning is exact, so this only trades work for nothing; it exists for
	// cross-checking runs.
	Exhaustive bool

	// Parallelism bounds scoring workers. If 0, defaults to GOMAXPROCS.
	Parallelism int
}

// Detector scores entangled pairs over corpora. The zero value is usable.
type Detector struct {
	opts Options
}

// NewDetector creates a detector.
func NewDetector(optFns ...func(o *Options)) *Detector {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Detector{opts: opts}
}

// Detect scores candidate pairs and returns every pair at or above
// threshold, classified entangled, ordered by descending resonance.
//
// With blocking enabled (the default), a pair is scored only when its score
// upper bound (every non-polarity term at its maximum plus the pair's fixed
// polarity affinity) reaches the threshold. The bound is exact, so blocked
// and exhaustive runs return the same pairs. Cancel ctx to stop a long run.
func (d *Detector) Detect(ctx context.Context, entities []*bitchain.BitChain, threshold float64) ([]bitchain.EntanglementPair, error) {
	n := len(entities)
	if n < 2 {
		return nil, nil
	}

	candidates := d.candidatePairs(entities, threshold)

	par := d.opts.Parallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(0)
	}

	results := make([]bitchain.EntanglementPair, len(candidates))
	keep := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(par)
	chunk := (len(candidates) + par - 1) / par
	if chunk == 0 {
		chunk = 1
	}
	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for k := start; k < end; k++ {
				i, j := unpackPair(candidates[k])
				a, b := entities[i], entities[j]
				score := Resonance(a, b)
				if score >= threshold {
					ida, idb := a.ID, b.ID
					if idb < ida {
						ida, idb = idb, ida
					}
					results[k] = bitchain.EntanglementPair{
						IDA:       ida,
						IDB:       idb,
						Resonance: score,
						Entangled: true,
					}
					keep[k] = true
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]bitchain.EntanglementPair, 0, len(results))
	for k, ok := range keep {
		if ok {
			out = append(out, results[k])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resonance != out[j].Resonance {
			return out[i].Resonance > out[j].Resonance
		}
		if out[i].IDA != out[j].IDA {
			return out[i].IDA < out[j].IDA
		}
		return out[i].IDB < out[j].IDB
	})
	return out, nil
}

// resonanceBound is the highest score a pair with the given polarity
// affinity can reach: every other term at its maximum of 1.
func resonanceBound(affinity float64) float64 {
	return weightAdjacency + weightPolarity*affinity + weightHorizon + weightLuminosity
}

// candidatePairs yields packed (i,j) index pairs to score. Polarity classes
// partition the corpus, so each unordered pair belongs to exactly one class
// pair and no dedup is needed.
func (d *Detector) candidatePairs(entities []*bitchain.BitChain, threshold float64) []uint64 {
	n := len(entities)

	if d.opts.Exhaustive {
		pairs := make([]uint64, 0, n*(n-1)/2)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, packPair(i, j))
			}
		}
		return pairs
	}

	var blocks [coordinate.NumPolarities]*roaring.Bitmap
	for i := range blocks {
		blocks[i] = roaring.New()
	}
	for i, e := range entities {
		blocks[e.Coordinates.Polarity].Add(uint32(i))
	}

	var pairs []uint64
	for a := 0; a < coordinate.NumPolarities; a++ {
		for b := a; b < coordinate.NumPolarities; b++ {
			if resonanceBound(polarityAffinity[a][b]) < threshold {
				continue
			}
			as := blocks[a].ToArray()
			if a == b {
				for x := 0; x < len(as); x++ {
					for y := x + 1; y < len(as); y++ {
						pairs = append(pairs, packPair(int(as[x]), int(as[y])))
					}
				}
				continue
			}
			bs := blocks[b].ToArray()
			for _, x := range as {
				for _, y := range bs {
					i, j := int(x), int(y)
					if j < i {
						i, j = j, i
					}
					pairs = append(pairs, packPair(i, j))
				}
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i] < pairs[j] })
	return pairs
}

func packPair(i, j int) uint64 { return uint64(i)<<32 | uint64(uint32(j)) }

func unpackPair(p uint64) (int, int) { return int(p >> 32), int(uint32(p)) }
