// Package compress implements the five-stage STAT7 compression pipeline:
// original → fragments → cluster → glyph → mist.
//
// Every stage emits a CompressionArtifact citing its predecessor, so
// provenance-chain integrity is structural. Narrative signal (affect,
// embeddings) is copied forward rather than re-derived, which is how it
// survives every stage. Byte-for-byte payload recovery is only guaranteed
// where an artifact's Expandable flag says so; the terminal mist artifact is
// honest about whether full-fidelity reconstruction is possible.
//
// Stage transforms for one entity run strictly sequentially; pipelines for
// independent entities run fully in parallel (see CompressBatch).
package compress

import (
	"context"
	"fmt"

	"github.com/stat7-io/stat7/address"
	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/codec"
	"github.com/stat7-io/stat7/coordinate"
	"github.com/stat7-io/stat7/embedding"
)

// ErrStageFailure reports a failed stage transform. The pipeline aborts at
// the failing stage and returns the artifacts produced so far with the chain
// flagged incomplete.
type ErrStageFailure struct {
	Stage bitchain.Stage
	cause error
}

func (e *ErrStageFailure) Error() string {
	return fmt.Sprintf("compress: stage %s failed: %v", e.Stage, e.cause)
}

func (e *ErrStageFailure) Unwrap() error { return e.cause }

// ErrReconstruction reports that expansion could not recover required
// identity fields. It is fatal to the expand call; there is no partial
// success.
type ErrReconstruction struct {
	Missing []string
	cause   error
}

func (e *ErrReconstruction) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("compress: reconstruction failed, missing identity fields %v", e.Missing)
	}
	return fmt.Sprintf("compress: reconstruction failed: %v", e.cause)
}

func (e *ErrReconstruction) Unwrap() error { return e.cause }

// Chain is the ordered artifact list produced by one pipeline run.
type Chain struct {
	EntityID   string                         `json:"entity_id"`
	Artifacts  []bitchain.CompressionArtifact `json:"artifacts"`
	Incomplete bool                           `json:"incomplete"`
}

// Terminal returns the deepest artifact, or nil for an empty chain.
func (c Chain) Terminal() *bitchain.CompressionArtifact {
	if len(c.Artifacts) == 0 {
		return nil
	}
	return &c.Artifacts[len(c.Artifacts)-1]
}

// Ratio returns the end-to-end byte ratio from the original artifact to the
// terminal one. Intermediate stages may grow (the glyph stage adds derived
// signal); only this end-to-end figure is evaluated.
func (c Chain) Ratio() float64 {
	if len(c.Artifacts) == 0 || c.Artifacts[0].ByteSize == 0 {
		return 0
	}
	return float64(c.Terminal().ByteSize) / float64(c.Artifacts[0].ByteSize)
}

// Validate checks provenance-chain integrity: stages in pipeline order from
// original, each artifact citing its predecessor's id.
func (c Chain) Validate() error {
	if len(c.Artifacts) == 0 {
		return fmt.Errorf("compress: empty chain")
	}
	for i, a := range c.Artifacts {
		if !a.Stage.Valid() {
			return fmt.Errorf("compress: unknown stage %q", a.Stage)
		}
		if a.Stage != bitchain.Stages[i] {
			return fmt.Errorf("compress: stage %s out of order at position %d", a.Stage, i)
		}
		if i == 0 {
			if a.Provenance != "" {
				return fmt.Errorf("compress: original artifact must not cite a predecessor")
			}
			continue
		}
		if a.Provenance != c.Artifacts[i-1].ID {
			return fmt.Errorf("compress: artifact %s breaks the provenance chain", a.ID)
		}
	}
	return nil
}

// Per-stage luminosity survival factors. Mist retains under half of the
// activity signal, which matches the validated partial-recovery band.
var decayFactor = map[bitchain.Stage]float64{
	bitchain.StageOriginal:  1.0,
	bitchain.StageFragments: 0.92,
	bitchain.StageCluster:   0.78,
	bitchain.StageGlyph:     0.61,
	bitchain.StageMist:      0.45,
}

// Options configures a Pipeline.
type Options struct {
	// Codec serializes stage records. Defaults to codec.Default.
	Codec codec.Codec

	// Embedder produces glyph-stage embeddings. Defaults to the local
	// deterministic provider.
	Embedder embedding.Provider
}

// DefaultOptions are the pipeline defaults.
var DefaultOptions = Options{}

// Pipeline runs the five compression stages. Safe for concurrent use.
type Pipeline struct {
	codec    codec.Codec
	embedder embedding.Provider
}

// NewPipeline creates a pipeline.
func NewPipeline(optFns ...func(o *Options)) *Pipeline {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Embedder == nil {
		opts.Embedder = embedding.NewLocal(64)
	}
	return &Pipeline{codec: opts.Codec, embedder: opts.Embedder}
}

func (p *Pipeline) artifact(stage bitchain.Stage, id identity, prev string, data []byte, expandable bool) bitchain.CompressionArtifact {
	return bitchain.CompressionArtifact{
		ID:              bitchain.NewID(),
		Stage:           stage,
		EntityID:        id.ID,
		ByteSize:        len(data),
		LuminosityDecay: decayFactor[stage],
		Expandable:      expandable,
		Provenance:      prev,
		Data:            data,
	}
}

// stageExpandable reports whether full-fidelity payload reconstruction is
// possible from the given stage for the given payload kind.
//
// Fragment units are exact for state (sorted key=value), vector (full
// precision runs) and bytes (base64), but text fragmentation normalizes
// whitespace. Clustering additionally discards unit order, which only state
// survives (its canonical order is re-derivable by sorting).
func stageExpandable(stage bitchain.Stage, kind bitchain.PayloadKind) bool {
	switch stage {
	case bitchain.StageOriginal:
		return true
	case bitchain.StageFragments:
		return kind != bitchain.PayloadText
	case bitchain.StageCluster, bitchain.StageGlyph:
		return kind == bitchain.PayloadState
	default:
		return false
	}
}

// Compress runs all five stages over the entity.
//
// On a stage failure the partial chain is returned with Incomplete set,
// alongside an *ErrStageFailure. A validation failure before the first stage
// mutates nothing and produces no artifacts.
func (p *Pipeline) Compress(ctx context.Context, bc *bitchain.BitChain) (Chain, error) {
	if bc == nil {
		return Chain{}, &ErrStageFailure{Stage: bitchain.StageOriginal, cause: fmt.Errorf("nil entity")}
	}
	if err := bc.Payload.Validate(); err != nil {
		return Chain{}, &ErrStageFailure{Stage: bitchain.StageOriginal, cause: err}
	}

	id := identityOf(bc)
	chain := Chain{EntityID: bc.ID}

	fail := func(stage bitchain.Stage, err error) (Chain, error) {
		chain.Incomplete = true
		return chain, &ErrStageFailure{Stage: stage, cause: err}
	}

	// original: verbatim entity.
	origData, err := p.codec.Marshal(originalRecord{Identity: id, Entity: bc})
	if err != nil {
		return fail(bitchain.StageOriginal, err)
	}
	orig := p.artifact(bitchain.StageOriginal, id, "", origData, true)
	chain.Artifacts = append(chain.Artifacts, orig)

	// fragments: minimal semantic units, order preserved, lz4-framed.
	affect := measureAffect(affectSource(bc.Payload))
	frag := fragmentsRecord{Identity: id, Kind: bc.Payload.Kind, Units: fragmentPayload(bc.Payload), Affect: affect}
	fragData, err := p.marshalLZ4(frag)
	if err != nil {
		return fail(bitchain.StageFragments, err)
	}
	fragArt := p.artifact(bitchain.StageFragments, id, orig.ID, fragData,
		stageExpandable(bitchain.StageFragments, bc.Payload.Kind))
	chain.Artifacts = append(chain.Artifacts, fragArt)

	// cluster: similarity groups, membership kept, position dropped.
	clus := clusterRecord{Identity: id, Kind: bc.Payload.Kind, Clusters: clusterUnits(frag.Units), Affect: affect}
	clusData, err := p.marshalLZ4(clus)
	if err != nil {
		return fail(bitchain.StageCluster, err)
	}
	clusArt := p.artifact(bitchain.StageCluster, id, fragArt.ID, clusData,
		stageExpandable(bitchain.StageCluster, bc.Payload.Kind))
	chain.Artifacts = append(chain.Artifacts, clusArt)

	// glyph: symbolic entries plus embeddings. Derived signal, may grow.
	glyphs, err := p.glyphify(ctx, clus.Clusters)
	if err != nil {
		return fail(bitchain.StageGlyph, err)
	}
	gl := glyphRecord{Identity: id, Kind: bc.Payload.Kind, Glyphs: glyphs, Affect: affect}
	glData, err := p.codec.Marshal(gl)
	if err != nil {
		return fail(bitchain.StageGlyph, err)
	}
	glArt := p.artifact(bitchain.StageGlyph, id, clusArt.ID, glData,
		stageExpandable(bitchain.StageGlyph, bc.Payload.Kind))
	chain.Artifacts = append(chain.Artifacts, glArt)

	// mist: provenance + narrative signal only, zstd-framed.
	mist := mistRecord{
		Identity: id,
		Kind:     bc.Payload.Kind,
		Symbols:  symbolsOf(glyphs),
		Centroid: centroid(glyphs),
		Affect:   affect,
		Hints: coordHints{
			AdjacencyBucket: address.QuantizeAdjacency(bc.Coordinates.Adjacency),
			Horizon:         bc.Coordinates.Horizon,
		},
	}
	if bc.Payload.Size() <= inlinePayloadLimit {
		pl := bc.Payload
		mist.InlinePayload = &pl
	}
	mistPlain, err := p.codec.Marshal(mist)
	if err != nil {
		return fail(bitchain.StageMist, err)
	}
	mistData, err := zstdCompress(mistPlain)
	if err != nil {
		return fail(bitchain.StageMist, err)
	}
	mistArt := p.artifact(bitchain.StageMist, id, glArt.ID, mistData, mist.InlinePayload != nil)
	chain.Artifacts = append(chain.Artifacts, mistArt)

	return chain, nil
}

func (p *Pipeline) marshalLZ4(v any) ([]byte, error) {
	plain, err := p.codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	return lz4Compress(plain)
}

func affectSource(pl bitchain.Payload) string {
	switch pl.Kind {
	case bitchain.PayloadText:
		return pl.Text
	case bitchain.PayloadState:
		var sb []byte
		for k, v := range pl.State {
			sb = append(sb, k...)
			sb = append(sb, ' ')
			sb = append(sb, v...)
			sb = append(sb, ' ')
		}
		return string(sb)
	default:
		return ""
	}
}

func symbolsOf(glyphs []glyphEntry) []string {
	out := make([]string, 0, len(glyphs))
	for _, g := range glyphs {
		out = append(out, g.Symbol)
	}
	return out
}

// Expand reconstructs an entity from an artifact chain, walking backward
// from the deepest stage.
//
// A chain whose original artifact survives restores the entity verbatim.
// A mist-only (or mist-terminated, truncated) chain restores identity fields
// exactly and coordinates partially; the payload comes back only when the
// terminal artifact was flagged expandable. Missing identity fields fail
// with *ErrReconstruction.
func (p *Pipeline) Expand(ctx context.Context, chain Chain) (*bitchain.BitChain, error) {
	_ = ctx
	if len(chain.Artifacts) == 0 {
		return nil, &ErrReconstruction{cause: fmt.Errorf("empty chain")}
	}

	// Walk backward looking for the verbatim stage first.
	for i := len(chain.Artifacts) - 1; i >= 0; i-- {
		a := chain.Artifacts[i]
		if a.Stage != bitchain.StageOriginal {
			continue
		}
		var rec originalRecord
		if err := p.codec.Unmarshal(a.Data, &rec); err != nil {
			return nil, &ErrReconstruction{cause: err}
		}
		if rec.Entity == nil {
			return nil, &ErrReconstruction{Missing: []string{"entity"}}
		}
		return rec.Entity, nil
	}

	// No original artifact: reconstruct from the terminal mist record.
	term := chain.Terminal()
	if term.Stage != bitchain.StageMist {
		return nil, &ErrReconstruction{cause: fmt.Errorf("chain has neither original nor mist artifact")}
	}
	return p.expandMist(*term)
}

// expandMist rebuilds an entity from a single mist artifact.
func (p *Pipeline) expandMist(a bitchain.CompressionArtifact) (*bitchain.BitChain, error) {
	plain, err := zstdDecompress(a.Data)
	if err != nil {
		return nil, &ErrReconstruction{cause: err}
	}
	var rec mistRecord
	if err := p.codec.Unmarshal(plain, &rec); err != nil {
		return nil, &ErrReconstruction{cause: err}
	}

	var missing []string
	if rec.Identity.ID == "" {
		missing = append(missing, "id")
	}
	if rec.Identity.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return nil, &ErrReconstruction{Missing: missing}
	}

	// Partial coordinate recovery: realm and lineage are identity-exact,
	// horizon survives, adjacency only at bucket granularity.
	coords := coordinate.Coordinates{
		Realm:          rec.Identity.Realm,
		Lineage:        rec.Identity.Lineage,
		Horizon:        rec.Hints.Horizon,
		Adjacency:      (float64(rec.Hints.AdjacencyBucket) + 0.5) / address.AdjacencyBuckets,
		Dimensionality: 1,
	}

	bc := &bitchain.BitChain{
		ID:          rec.Identity.ID,
		EntityType:  rec.Identity.EntityType,
		Coordinates: coords,
		CreatedAt:   rec.Identity.CreatedAt,
		Address:     rec.Identity.Address,
	}
	if rec.InlinePayload != nil {
		bc.Payload = *rec.InlinePayload
	}
	return bc, nil
}
