// Package stat7 provides an embedded addressing and retrieval engine for
// entities located in a seven-dimensional coordinate space.
//
// Every entity is described by coordinates on seven dimensions (realm,
// lineage, adjacency, horizon, luminosity, polarity, dimensionality) and a
// payload. Submitting an entity derives a deterministic content address from
// both, indexes the entity for exact and range retrieval, and makes it
// available to the compression, bootstrap, and entanglement subsystems:
//
//   - Addressing: deterministic SHA-256 addresses over the structural
//     coordinate key and a payload fingerprint (address package)
//   - Retrieval: sharded exact lookup plus per-dimension range queries
//     backed by Roaring Bitmap postings (retrieval package)
//   - Compression: a five-stage lossy pipeline from verbatim originals down
//     to a minimal "mist" representation (compress package)
//   - Bootstrap: minimal records an empty system can be regrown from
//     (luca package)
//   - Entanglement: pairwise resonance detection across the corpus
//     (entangle package)
//
// # Quick start
//
//	eng, err := stat7.New()
//	if err != nil {
//	    panic(err)
//	}
//	defer eng.Close()
//
//	ctx := context.Background()
//	addr, err := eng.Submit(ctx, &bitchain.BitChain{
//	    ID:         bitchain.NewID(),
//	    EntityType: "concept",
//	    Coordinates: coordinate.Coordinates{
//	        Realm:          coordinate.RealmPattern,
//	        Adjacency:      0.42,
//	        Horizon:        coordinate.HorizonPeak,
//	        Luminosity:     70,
//	        Polarity:       coordinate.PolarityLogic,
//	        Dimensionality: 1,
//	    },
//	    Payload: bitchain.TextPayload("gradient descent converges slowly near saddle points"),
//	})
//
//	// Exact retrieval by address.
//	entity, err := eng.Get(ctx, addr)
//
//	// Hybrid retrieval: semantic similarity fused with coordinate proximity.
//	results, err := eng.Query("optimization near saddle points").
//	    K(10).
//	    WeightSemantic(0.6).
//	    WeightSTAT7(0.4).
//	    Execute(ctx)
//
// Engines are safe for concurrent use. Construction is configured with
// functional options; see Option.
package stat7
