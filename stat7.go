package stat7

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stat7-io/stat7/address"
	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/blobstore"
	"github.com/stat7-io/stat7/codec"
	"github.com/stat7-io/stat7/compress"
	"github.com/stat7-io/stat7/coordinate"
	"github.com/stat7-io/stat7/embedding"
	"github.com/stat7-io/stat7/entangle"
	"github.com/stat7-io/stat7/luca"
	"github.com/stat7-io/stat7/resource"
	"github.com/stat7-io/stat7/retrieval"
)

// Engine is the top-level STAT7 addressing and retrieval engine. All methods
// are safe for concurrent use.
type Engine struct {
	index      *retrieval.Index
	pipeline   *compress.Pipeline
	bootstrap  *luca.Bootstrap
	detector   *entangle.Detector
	store      blobstore.Store
	controller *resource.Controller
	embedder   embedding.Provider
	codec      codec.Codec
	metrics    MetricsCollector
	logger     *Logger

	// vectors caches per-address payload embeddings for hybrid scoring.
	vectors sync.Map // address -> []float32

	queriesServed atomic.Int64
	inFlight      atomic.Int64
	errorCount    atomic.Int64
	closed        atomic.Bool
}

// New creates an engine.
func New(optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)

	c := opts.codec
	if c == nil {
		c = codec.Default
	}
	embedder := opts.embedder
	if embedder == nil {
		embedder = embedding.NewLocal(64)
	}

	pipelineOptFns := append([]func(o *compress.Options){
		func(o *compress.Options) {
			o.Codec = c
			o.Embedder = embedder
		},
	}, opts.pipelineOptFns...)
	pipeline := compress.NewPipeline(pipelineOptFns...)

	return &Engine{
		index:      retrieval.New(),
		pipeline:   pipeline,
		bootstrap:  luca.New(pipeline),
		detector:   entangle.NewDetector(opts.detectorOptFns...),
		store:      opts.store,
		controller: opts.controller,
		embedder:   embedder,
		codec:      c,
		metrics:    opts.metricsCollector,
		logger:     opts.logger,
	}, nil
}

// Close marks the engine closed. Subsequent operations return ErrClosed.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.closed.Store(true)
	return nil
}

func (e *Engine) guard() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (e *Engine) fail(err error) error {
	err = translateError(err)
	if err != nil {
		e.errorCount.Add(1)
	}
	return err
}

// Submit validates an entity, derives its address, and indexes it. The
// derived address is written back to the entity and returned. Submitting the
// same entity again is a no-op; a different entity that collides on address
// fails with *retrieval.ErrDuplicateAddress.
func (e *Engine) Submit(ctx context.Context, entity *bitchain.BitChain) (string, error) {
	start := time.Now()
	addr, err := e.submit(ctx, entity)
	duration := time.Since(start)
	err = e.fail(err)
	e.metrics.RecordSubmit(duration, err)
	if entity != nil {
		e.logger.LogSubmit(ctx, entity.ID, addr, err)
	}
	return addr, err
}

func (e *Engine) submit(ctx context.Context, entity *bitchain.BitChain) (string, error) {
	if err := e.guard(); err != nil {
		return "", err
	}
	if entity == nil {
		return "", ErrNilEntity
	}
	if entity.ID == "" {
		entity.ID = bitchain.NewID()
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	addr, err := address.Encode(entity.Coordinates, entity.Payload)
	if err != nil {
		return "", err
	}
	entity.Address = addr

	if err := e.index.Insert(addr, entity); err != nil {
		return "", err
	}

	if text := semanticText(entity.Payload); text != "" {
		if vec, err := e.embedder.Embed(ctx, text); err == nil {
			e.vectors.Store(addr, vec)
		}
	}
	return addr, nil
}

// BatchSubmitResult reports per-item outcomes of a BatchSubmit. Addresses
// and Errors are parallel to the input slice; exactly one of the pair is set
// per item.
type BatchSubmitResult struct {
	Addresses []string
	Errors    []error
}

// BatchSubmit submits multiple entities. Item failures are isolated; one
// invalid entity does not affect its neighbors.
func (e *Engine) BatchSubmit(ctx context.Context, entities []*bitchain.BitChain) BatchSubmitResult {
	start := time.Now()
	result := BatchSubmitResult{
		Addresses: make([]string, len(entities)),
		Errors:    make([]error, len(entities)),
	}

	failed := 0
	for i, entity := range entities {
		addr, err := e.submit(ctx, entity)
		if err != nil {
			result.Errors[i] = e.fail(err)
			failed++
			continue
		}
		result.Addresses[i] = addr
	}

	duration := time.Since(start)
	e.metrics.RecordBatchSubmit(len(entities), failed, duration)
	e.logger.LogBatchSubmit(ctx, len(entities), failed)
	return result
}

// Get returns the entity stored at the given address. Exact lookups count
// toward the queries-served total alongside range and hybrid queries.
func (e *Engine) Get(ctx context.Context, address string) (*bitchain.BitChain, error) {
	start := time.Now()
	if err := e.guard(); err != nil {
		return nil, e.fail(err)
	}

	entity, ok := e.index.Lookup(address)
	e.queriesServed.Add(1)
	e.metrics.RecordLookup(time.Since(start), ok)
	e.logger.LogLookup(ctx, address, ok)
	if !ok {
		return nil, e.fail(retrieval.ErrNotFound)
	}
	return entity, nil
}

// Delete removes the entity at the given address from the index and, when an
// artifact store is configured, deletes its persisted artifacts.
func (e *Engine) Delete(ctx context.Context, addr string) error {
	start := time.Now()
	err := e.delete(ctx, addr)
	err = e.fail(err)
	e.metrics.RecordDelete(time.Since(start), err)
	e.logger.LogDelete(ctx, addr, err)
	return err
}

func (e *Engine) delete(ctx context.Context, addr string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.index.Delete(addr); err != nil {
		return err
	}
	e.vectors.Delete(addr)

	if e.store != nil {
		keys, err := e.store.List(ctx, blobstore.EntityPrefix(addr))
		if err != nil {
			return fmt.Errorf("list artifacts: %w", err)
		}
		for _, key := range keys {
			if err := e.store.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete artifact %s: %w", key, err)
			}
		}
	}
	return nil
}

// RangeQuery returns entities whose value on the given dimension lies in
// [low, high]. The sequence is lazy; metrics are recorded when the caller
// finishes iterating.
func (e *Engine) RangeQuery(ctx context.Context, dim coordinate.Dimension, low, high float64) iter.Seq[*bitchain.BitChain] {
	return func(yield func(*bitchain.BitChain) bool) {
		if e.guard() != nil {
			return
		}
		start := time.Now()
		e.inFlight.Add(1)
		defer e.inFlight.Add(-1)

		matched := 0
		for entity := range e.index.RangeQuery(dim, low, high) {
			if ctx.Err() != nil {
				break
			}
			matched++
			if !yield(entity) {
				break
			}
		}

		e.queriesServed.Add(1)
		e.metrics.RecordRangeQuery(matched, time.Since(start))
		e.logger.LogRangeQuery(ctx, dim.String(), low, high, matched)
	}
}

// Compress runs the five-stage pipeline over the entity at the given
// address. When an artifact store is configured every produced artifact is
// persisted, keyed by address and stage.
func (e *Engine) Compress(ctx context.Context, addr string) (compress.Chain, error) {
	start := time.Now()
	chain, err := e.compress(ctx, addr)
	duration := time.Since(start)
	err = e.fail(err)
	e.metrics.RecordCompress(len(chain.Artifacts), duration, err)
	e.logger.LogCompress(ctx, chain.EntityID, len(chain.Artifacts), chain.Incomplete, err)
	return chain, err
}

func (e *Engine) compress(ctx context.Context, addr string) (compress.Chain, error) {
	if err := e.guard(); err != nil {
		return compress.Chain{}, err
	}
	entity, ok := e.index.Lookup(addr)
	if !ok {
		return compress.Chain{}, retrieval.ErrNotFound
	}

	chain, err := e.pipeline.Compress(ctx, entity)
	if err != nil {
		return chain, err
	}

	if e.store != nil {
		for _, a := range chain.Artifacts {
			key := blobstore.Key(addr, a.Stage)
			data, err := e.codec.Marshal(a)
			if err != nil {
				return chain, fmt.Errorf("encode %s artifact: %w", a.Stage, err)
			}
			// IO throughput is charged by the store that performs the write;
			// charging here as well would bill every byte twice when the same
			// controller backs both the engine and a throttled store.
			if err := e.store.Put(ctx, key, data); err != nil {
				return chain, fmt.Errorf("persist %s artifact: %w", a.Stage, err)
			}
		}
	}
	return chain, nil
}

// Expand reconstructs an entity from a chain in hand.
func (e *Engine) Expand(ctx context.Context, chain compress.Chain) (*bitchain.BitChain, error) {
	start := time.Now()
	entity, err := e.expand(ctx, chain)
	err = e.fail(err)
	e.metrics.RecordExpand(time.Since(start), err)
	e.logger.LogExpand(ctx, chain.EntityID, err)
	return entity, err
}

func (e *Engine) expand(ctx context.Context, chain compress.Chain) (*bitchain.BitChain, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.pipeline.Expand(ctx, chain)
}

// ExpandStored reconstructs an entity from artifacts previously persisted by
// Compress. Requires an artifact store.
func (e *Engine) ExpandStored(ctx context.Context, addr string) (*bitchain.BitChain, error) {
	start := time.Now()
	entity, err := e.expandStored(ctx, addr)
	err = e.fail(err)
	e.metrics.RecordExpand(time.Since(start), err)
	e.logger.LogExpand(ctx, addr, err)
	return entity, err
}

func (e *Engine) expandStored(ctx context.Context, addr string) (*bitchain.BitChain, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if e.store == nil {
		return nil, ErrNoArtifactStore
	}

	chain := compress.Chain{}
	for _, stage := range bitchain.Stages {
		data, err := e.store.Get(ctx, blobstore.Key(addr, stage))
		if err != nil {
			continue // missing stages are fine, reconstruction uses what exists
		}
		var a bitchain.CompressionArtifact
		if err := e.codec.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("decode %s artifact: %w", stage, err)
		}
		chain.EntityID = a.EntityID
		chain.Artifacts = append(chain.Artifacts, a)
	}
	if len(chain.Artifacts) == 0 {
		return nil, blobstore.ErrNotFound
	}

	return e.pipeline.Expand(ctx, chain)
}

// CompressBatch compresses many indexed entities in parallel. Addresses that
// resolve to no entity yield a per-item error.
func (e *Engine) CompressBatch(ctx context.Context, addrs []string) []compress.ItemResult {
	if err := e.guard(); err != nil {
		results := make([]compress.ItemResult, len(addrs))
		for i := range results {
			results[i] = compress.ItemResult{Index: i, Err: e.fail(err)}
		}
		return results
	}

	entities := make([]*bitchain.BitChain, len(addrs))
	missing := make([]bool, len(addrs))
	for i, addr := range addrs {
		entity, ok := e.index.Lookup(addr)
		if !ok {
			missing[i] = true
			continue
		}
		entities[i] = entity
	}

	results := e.pipeline.CompressBatch(ctx, entities, func(o *compress.BatchOptions) {
		o.Controller = e.controller
	})
	for i := range results {
		if missing[i] {
			results[i].Err = e.fail(retrieval.ErrNotFound)
		}
	}
	return results
}

// Bootstrap derives the minimal record for the entity at the given address.
func (e *Engine) Bootstrap(ctx context.Context, addr string) (*bitchain.LUCARecord, error) {
	if err := e.guard(); err != nil {
		return nil, e.fail(err)
	}
	entity, ok := e.index.Lookup(addr)
	if !ok {
		return nil, e.fail(retrieval.ErrNotFound)
	}

	rec, err := e.bootstrap.ToLUCA(ctx, entity)
	err = e.fail(err)
	e.logger.LogBootstrap(ctx, "to_luca", addr, err)
	return rec, err
}

// Restore regrows an entity from a minimal record and indexes the
// reconstruction. Returns the reconstructed entity and its address.
func (e *Engine) Restore(ctx context.Context, rec *bitchain.LUCARecord) (*bitchain.BitChain, error) {
	if err := e.guard(); err != nil {
		return nil, e.fail(err)
	}

	entity, err := e.bootstrap.FromLUCA(ctx, rec)
	if err != nil {
		err = e.fail(err)
		e.logger.LogBootstrap(ctx, "from_luca", "", err)
		return nil, err
	}

	if err := e.index.Insert(entity.Address, entity); err != nil {
		err = e.fail(err)
		e.logger.LogBootstrap(ctx, "from_luca", entity.Address, err)
		return nil, err
	}
	e.logger.LogBootstrap(ctx, "from_luca", entity.Address, nil)
	return entity, nil
}

// Entangled detects entangled pairs across the whole indexed corpus.
func (e *Engine) Entangled(ctx context.Context, threshold float64) ([]bitchain.EntanglementPair, error) {
	if err := e.guard(); err != nil {
		return nil, e.fail(err)
	}
	start := time.Now()

	entities := make([]*bitchain.BitChain, 0, e.index.Len())
	for entity := range e.index.All() {
		entities = append(entities, entity)
	}

	pairs, err := e.detector.Detect(ctx, entities, threshold)
	err = e.fail(err)
	e.logger.LogEntangle(ctx, len(entities), len(pairs), time.Since(start), err)
	return pairs, err
}

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	Entities      int
	QueriesServed int64
	InFlight      int64
	Errors        int64
	Dimensions    []retrieval.DimensionStats
}

// Stats returns a snapshot of engine counters and index statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Entities:      e.index.Len(),
		QueriesServed: e.queriesServed.Load(),
		InFlight:      e.inFlight.Load(),
		Errors:        e.errorCount.Load(),
		Dimensions:    e.index.Stats(),
	}
}

// Healthy reports whether the engine can serve requests.
func (e *Engine) Healthy() bool {
	return e != nil && !e.closed.Load()
}

// semanticText flattens a payload into the text used for embedding. Vector
// and byte payloads carry no usable text and score neutrally in hybrid
// queries.
func semanticText(p bitchain.Payload) string {
	switch p.Kind {
	case bitchain.PayloadText:
		return p.Text
	case bitchain.PayloadState:
		keys := make([]string, 0, len(p.State))
		for k := range p.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for _, k := range keys {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(k)
			sb.WriteByte(' ')
			sb.WriteString(p.State[k])
		}
		return sb.String()
	default:
		return ""
	}
}
