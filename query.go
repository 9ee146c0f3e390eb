// This file implements the fluent hybrid query API. Hybrid retrieval fuses
// semantic similarity over payload embeddings with structural proximity in
// the seven-dimensional coordinate space.
package stat7

import (
	"context"
	"iter"
	"math"
	"sort"
	"time"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
	"github.com/stat7-io/stat7/embedding"
)

// QueryResult is one scored hybrid query hit.
type QueryResult struct {
	Entity *bitchain.BitChain

	// Score is the weighted fusion of Semantic and STAT7, in [0,1].
	Score float64

	// Semantic is the embedding-similarity component, in [0,1].
	Semantic float64

	// STAT7 is the coordinate-proximity component, in [0,1].
	STAT7 float64

	// Coherence measures agreement between the two components: 1 when both
	// signals rank the entity identically, approaching 0 when they
	// contradict each other.
	Coherence float64
}

// dimFilter restricts candidates on one dimension.
type dimFilter struct {
	dim  coordinate.Dimension
	low  float64
	high float64
}

// Query creates a fluent hybrid query builder for the given text.
//
// Example:
//
//	results, err := eng.Query("saddle point escape").
//	    K(10).
//	    WeightSemantic(0.6).
//	    WeightSTAT7(0.4).
//	    Anchor(anchorCoords).
//	    Within(coordinate.DimLuminosity, 40, 100).
//	    Execute(ctx)
func (e *Engine) Query(text string) *QueryBuilder {
	return &QueryBuilder{
		engine:         e,
		text:           text,
		k:              10, // Default k
		weightSemantic: 0.5,
		weightSTAT7:    0.5,
	}
}

// QueryBuilder is a fluent builder for constructing hybrid queries.
type QueryBuilder struct {
	engine *Engine
	text   string
	k      int

	weightSemantic float64
	weightSTAT7    float64

	anchor    *coordinate.Coordinates
	filters   []dimFilter
	threshold float64
}

// K sets the number of results to return.
func (qb *QueryBuilder) K(k int) *QueryBuilder {
	qb.k = k
	return qb
}

// WeightSemantic sets the weight of the embedding-similarity component.
func (qb *QueryBuilder) WeightSemantic(w float64) *QueryBuilder {
	qb.weightSemantic = w
	return qb
}

// WeightSTAT7 sets the weight of the coordinate-proximity component.
func (qb *QueryBuilder) WeightSTAT7(w float64) *QueryBuilder {
	qb.weightSTAT7 = w
	return qb
}

// Anchor sets the coordinates that structural proximity is measured
// against. Without an anchor the STAT7 component is neutral (0.5) for every
// candidate and ranking is driven by semantics alone.
func (qb *QueryBuilder) Anchor(c coordinate.Coordinates) *QueryBuilder {
	qb.anchor = &c
	return qb
}

// Within restricts candidates to entities whose value on the dimension lies
// in [low, high]. Multiple filters intersect.
func (qb *QueryBuilder) Within(dim coordinate.Dimension, low, high float64) *QueryBuilder {
	qb.filters = append(qb.filters, dimFilter{dim: dim, low: low, high: high})
	return qb
}

// MinScore drops results scoring below the threshold.
func (qb *QueryBuilder) MinScore(threshold float64) *QueryBuilder {
	qb.threshold = threshold
	return qb
}

// Execute runs the query and returns up to K results ordered by descending
// score.
func (qb *QueryBuilder) Execute(ctx context.Context) ([]QueryResult, error) {
	e := qb.engine
	start := time.Now()
	results, err := qb.run(ctx)
	duration := time.Since(start)
	err = e.fail(err)
	e.metrics.RecordHybridQuery(qb.k, duration, err)
	e.logger.LogHybridQuery(ctx, qb.k, duration, err)
	return results, err
}

// Stream runs the query and yields results in descending score order.
// Scoring is not incremental; Stream exists for symmetry with range queries
// and early termination convenience.
func (qb *QueryBuilder) Stream(ctx context.Context) iter.Seq2[QueryResult, error] {
	return func(yield func(QueryResult, error) bool) {
		results, err := qb.Execute(ctx)
		if err != nil {
			yield(QueryResult{}, err)
			return
		}
		for _, r := range results {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (qb *QueryBuilder) run(ctx context.Context) ([]QueryResult, error) {
	e := qb.engine
	if err := e.guard(); err != nil {
		return nil, err
	}
	if qb.k <= 0 {
		return nil, ErrInvalidK
	}
	if qb.weightSemantic < 0 || qb.weightSTAT7 < 0 || qb.weightSemantic+qb.weightSTAT7 == 0 {
		return nil, ErrInvalidWeights
	}

	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	defer e.queriesServed.Add(1)

	wSem := qb.weightSemantic / (qb.weightSemantic + qb.weightSTAT7)
	wStat := 1 - wSem

	var queryVec []float32
	if qb.text != "" && wSem > 0 {
		vec, err := e.embedder.Embed(ctx, qb.text)
		if err != nil {
			return nil, err
		}
		queryVec = vec
	}

	results := make([]QueryResult, 0, qb.k)
	for entity := range qb.candidates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sem := 0.5
		if queryVec != nil {
			if vec := e.entityVector(ctx, entity); vec != nil {
				sem = (embedding.Cosine(queryVec, vec) + 1) / 2
			}
		}

		stat := 0.5
		if qb.anchor != nil {
			stat = coordinate.Proximity(*qb.anchor, entity.Coordinates)
		}

		score := wSem*sem + wStat*stat
		if score < qb.threshold {
			continue
		}
		results = append(results, QueryResult{
			Entity:    entity,
			Score:     score,
			Semantic:  sem,
			STAT7:     stat,
			Coherence: 1 - math.Abs(sem-stat),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entity.Address < results[j].Entity.Address
	})
	if len(results) > qb.k {
		results = results[:qb.k]
	}
	return results, nil
}

// candidates yields entities passing every dimension filter. With no
// filters the whole corpus is scored; with filters the narrowest range scan
// drives and the remaining filters re-check values inline.
func (qb *QueryBuilder) candidates() iter.Seq[*bitchain.BitChain] {
	e := qb.engine
	if len(qb.filters) == 0 {
		return e.index.All()
	}

	first := qb.filters[0]
	rest := qb.filters[1:]
	return func(yield func(*bitchain.BitChain) bool) {
		for entity := range e.index.RangeQuery(first.dim, first.low, first.high) {
			pass := true
			for _, f := range rest {
				v := entity.Coordinates.Value(f.dim)
				if v < f.low || v > f.high {
					pass = false
					break
				}
			}
			if pass && !yield(entity) {
				return
			}
		}
	}
}

// entityVector returns the cached payload embedding for an entity,
// computing and caching it on demand.
func (e *Engine) entityVector(ctx context.Context, entity *bitchain.BitChain) []float32 {
	if v, ok := e.vectors.Load(entity.Address); ok {
		return v.([]float32)
	}
	text := semanticText(entity.Payload)
	if text == "" {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil
	}
	e.vectors.Store(entity.Address, vec)
	return vec
}
