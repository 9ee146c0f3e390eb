package entangle

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
)

func testEntity(id string, realm coordinate.Realm, adjacency float64, horizon coordinate.Horizon, luminosity int, polarity coordinate.Polarity) *bitchain.BitChain {
	return &bitchain.BitChain{
		ID:         id,
		EntityType: "concept",
		Coordinates: coordinate.Coordinates{
			Realm:          realm,
			Lineage:        1,
			Adjacency:      adjacency,
			Horizon:        horizon,
			Luminosity:     luminosity,
			Polarity:       polarity,
			Dimensionality: 1,
		},
	}
}

func TestResonanceSymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := testEntity("a",
			coordinate.Realm(rng.Intn(coordinate.NumRealms)),
			rng.Float64(),
			coordinate.Horizon(rng.Intn(coordinate.NumHorizons)),
			rng.Intn(101),
			coordinate.Polarity(rng.Intn(coordinate.NumPolarities)))
		b := testEntity("b",
			coordinate.Realm(rng.Intn(coordinate.NumRealms)),
			rng.Float64(),
			coordinate.Horizon(rng.Intn(coordinate.NumHorizons)),
			rng.Intn(101),
			coordinate.Polarity(rng.Intn(coordinate.NumPolarities)))

		sab := Resonance(a, b)
		sba := Resonance(b, a)
		if sab != sba {
			t.Fatalf("resonance not symmetric: %v vs %v", sab, sba)
		}
		if sab < 0 || sab > 1 {
			t.Fatalf("resonance out of range: %v", sab)
		}
	}
}

func TestResonanceIdenticalCoordinates(t *testing.T) {
	a := testEntity("a", coordinate.RealmPattern, 0.4, coordinate.HorizonPeak, 60, coordinate.PolarityLogic)
	b := testEntity("b", coordinate.RealmPattern, 0.4, coordinate.HorizonPeak, 60, coordinate.PolarityLogic)
	require.InDelta(t, 1.0, Resonance(a, b), 1e-9)
}

func TestPolarityAffinity(t *testing.T) {
	if got := PolarityAffinity(coordinate.PolarityLogic, coordinate.PolarityLogic); got != 1.0 {
		t.Fatalf("same polarity affinity = %v, want 1.0", got)
	}
	lo := PolarityAffinity(coordinate.PolarityOrder, coordinate.PolarityChaos)
	hi := PolarityAffinity(coordinate.PolarityLogic, coordinate.PolarityOrder)
	if lo >= hi {
		t.Fatalf("opposed polarities (%v) should score below complementary ones (%v)", lo, hi)
	}
	if PolarityAffinity(coordinate.PolarityChaos, coordinate.PolarityOrder) != lo {
		t.Fatal("affinity matrix not symmetric")
	}
	if got := PolarityAffinity(coordinate.Polarity(99), coordinate.PolarityLogic); got != 0 {
		t.Fatalf("invalid polarity should score 0, got %v", got)
	}
}

func TestDetectThreshold(t *testing.T) {
	close1 := testEntity("close-1", coordinate.RealmCompanion, 0.50, coordinate.HorizonPeak, 70, coordinate.PolarityCreativity)
	close2 := testEntity("close-2", coordinate.RealmCompanion, 0.52, coordinate.HorizonPeak, 68, coordinate.PolarityCreativity)
	far := testEntity("far", coordinate.RealmVoid, 0.01, coordinate.HorizonArchived, 2, coordinate.PolarityOrder)

	d := NewDetector()
	pairs, err := d.Detect(context.Background(), []*bitchain.BitChain{close1, close2, far}, 0.8)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	if p.IDA != "close-1" || p.IDB != "close-2" {
		t.Fatalf("unexpected pair %s/%s", p.IDA, p.IDB)
	}
	if !p.Entangled || p.Resonance < 0.8 {
		t.Fatalf("pair should be entangled above threshold, got %+v", p)
	}
}

func TestDetectPairIDsOrdered(t *testing.T) {
	a := testEntity("zzz", coordinate.RealmBadge, 0.3, coordinate.HorizonEmergence, 40, coordinate.PolarityBalance)
	b := testEntity("aaa", coordinate.RealmBadge, 0.3, coordinate.HorizonEmergence, 40, coordinate.PolarityBalance)

	pairs, err := NewDetector().Detect(context.Background(), []*bitchain.BitChain{a, b}, 0.9)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	if pairs[0].IDA != "aaa" || pairs[0].IDB != "zzz" {
		t.Fatalf("pair IDs not ordered: %+v", pairs[0])
	}
}

func TestDetectFewerThanTwo(t *testing.T) {
	d := NewDetector()
	pairs, err := d.Detect(context.Background(), nil, 0.5)
	require.NoError(t, err)
	require.Empty(t, pairs)

	one := testEntity("only", coordinate.RealmFaculty, 0.5, coordinate.HorizonPeak, 50, coordinate.PolarityLogic)
	pairs, err = d.Detect(context.Background(), []*bitchain.BitChain{one}, 0.5)
	require.NoError(t, err)
	require.Empty(t, pairs)
}

func TestDetectContextCancel(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	entities := make([]*bitchain.BitChain, 400)
	for i := range entities {
		entities[i] = testEntity(fmt.Sprintf("e-%03d", i),
			coordinate.RealmPattern,
			rng.Float64(),
			coordinate.Horizon(rng.Intn(coordinate.NumHorizons)),
			rng.Intn(101),
			coordinate.Polarity(rng.Intn(coordinate.NumPolarities)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDetector().Detect(ctx, entities, 0.5)
	require.ErrorIs(t, err, context.Canceled)
}

// buildLabeledCorpus assembles 120 entities: 20 constructed entangled pairs,
// 20 constructed unrelated pairs, and 40 unlabeled filler entities.
func buildLabeledCorpus() ([]*bitchain.BitChain, []Label) {
	rng := rand.New(rand.NewSource(42))
	var entities []*bitchain.BitChain
	var labels []Label

	realms := []coordinate.Realm{
		coordinate.RealmCompanion, coordinate.RealmBadge, coordinate.RealmPattern, coordinate.RealmFaculty,
	}
	polarities := []coordinate.Polarity{
		coordinate.PolarityLogic, coordinate.PolarityCreativity, coordinate.PolarityBalance, coordinate.PolarityCommunity,
	}

	for k := 0; k < 20; k++ {
		realm := realms[k%len(realms)]
		pol := polarities[k%len(polarities)]
		hor := coordinate.Horizon(1 + k%3)
		adj := 0.1 + 0.8*rng.Float64()
		lum := 20 + rng.Intn(60)

		a := testEntity(fmt.Sprintf("true-%02d-a", k), realm, adj, hor, lum, pol)
		b := testEntity(fmt.Sprintf("true-%02d-b", k), realm, adj+0.01, hor, lum+2, pol)
		entities = append(entities, a, b)
		labels = append(labels, Label{IDA: a.ID, IDB: b.ID, Entangled: true})
	}

	for k := 0; k < 20; k++ {
		a := testEntity(fmt.Sprintf("false-%02d-a", k),
			coordinate.RealmCompanion, 0.02+0.02*rng.Float64(),
			coordinate.HorizonGenesis, rng.Intn(10), coordinate.PolarityOrder)
		b := testEntity(fmt.Sprintf("false-%02d-b", k),
			coordinate.RealmVoid, 0.92+0.05*rng.Float64(),
			coordinate.HorizonArchived, 90+rng.Intn(10), coordinate.PolarityChaos)
		entities = append(entities, a, b)
		labels = append(labels, Label{IDA: a.ID, IDB: b.ID, Entangled: false})
	}

	for k := 0; k < 40; k++ {
		entities = append(entities, testEntity(fmt.Sprintf("fill-%02d", k),
			realms[rng.Intn(len(realms))],
			rng.Float64(),
			coordinate.Horizon(rng.Intn(coordinate.NumHorizons)),
			rng.Intn(101),
			coordinate.Polarity(rng.Intn(coordinate.NumPolarities))))
	}

	return entities, labels
}

func TestDetectPrecisionRecall(t *testing.T) {
	entities, labels := buildLabeledCorpus()
	require.Len(t, entities, 120)

	pairs, err := NewDetector().Detect(context.Background(), entities, 0.9)
	require.NoError(t, err)

	precision, recall := Evaluate(pairs, labels)
	if precision < 0.95 {
		t.Fatalf("precision %.3f below 0.95", precision)
	}
	if recall < 0.95 {
		t.Fatalf("recall %.3f below 0.95", recall)
	}
}

func TestDetectCrossRealmPairAboveThreshold(t *testing.T) {
	// Realm is not a resonance term: two entities in different realms with
	// weakly compatible polarities but identical adjacency, horizon and
	// luminosity score 0.35 + 0.25*0.3 + 0.20 + 0.20 = 0.825.
	a := testEntity("a", coordinate.RealmCompanion, 0.5, coordinate.HorizonPeak, 50, coordinate.PolarityLogic)
	b := testEntity("b", coordinate.RealmVoid, 0.5, coordinate.HorizonPeak, 50, coordinate.PolarityCreativity)
	require.InDelta(t, 0.825, Resonance(a, b), 1e-9)

	pairs, err := NewDetector().Detect(context.Background(), []*bitchain.BitChain{a, b}, 0.8)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.InDelta(t, 0.825, pairs[0].Resonance, 1e-9)
}

func TestDetectBlockedMatchesExhaustive(t *testing.T) {
	entities, _ := buildLabeledCorpus()

	for _, threshold := range []float64{0.5, 0.78, 0.8, 0.9} {
		blocked, err := NewDetector().Detect(context.Background(), entities, threshold)
		require.NoError(t, err)
		exhaustive, err := NewDetector(func(o *Options) { o.Exhaustive = true }).Detect(context.Background(), entities, threshold)
		require.NoError(t, err)

		// Pruning drops only pairs whose bound is below the threshold, so
		// both runs must return identical results.
		require.Equal(t, exhaustive, blocked, "threshold %v", threshold)
	}
}

func TestDetectPrunesHopelessPolarityPair(t *testing.T) {
	// Order/Chaos affinity is 0.1, bounding the pair's score at 0.775 even
	// with every other term maxed out.
	a := testEntity("a", coordinate.RealmBadge, 0.5, coordinate.HorizonPeak, 50, coordinate.PolarityOrder)
	b := testEntity("b", coordinate.RealmBadge, 0.5, coordinate.HorizonPeak, 50, coordinate.PolarityChaos)
	require.InDelta(t, 0.775, Resonance(a, b), 1e-9)

	pairs, err := NewDetector().Detect(context.Background(), []*bitchain.BitChain{a, b}, 0.8)
	require.NoError(t, err)
	require.Empty(t, pairs)
}

func TestEvaluateEmpty(t *testing.T) {
	p, r := Evaluate(nil, nil)
	if p != 0 || r != 0 {
		t.Fatalf("empty evaluation should be 0/0, got %v/%v", p, r)
	}
}

func TestEvaluateIgnoresUnlabeled(t *testing.T) {
	labels := []Label{{IDA: "a", IDB: "b", Entangled: true}}
	predicted := []bitchain.EntanglementPair{
		{IDA: "a", IDB: "b", Resonance: 0.95, Entangled: true},
		{IDA: "x", IDB: "y", Resonance: 0.91, Entangled: true},
	}
	p, r := Evaluate(predicted, labels)
	if p != 1.0 || r != 1.0 {
		t.Fatalf("unlabeled prediction should not count, got precision=%v recall=%v", p, r)
	}
}
