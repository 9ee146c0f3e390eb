// Package bitchain defines the entity and artifact types shared across the
// STAT7 engine: the addressable BitChain, its tagged-variant payload, the
// compression artifacts produced by the pipeline, entanglement pairs and
// LUCA records.
package bitchain

import (
	"time"

	"github.com/google/uuid"

	"github.com/stat7-io/stat7/coordinate"
)

// MaxPayloadBytes bounds the serialized payload size accepted at submission.
const MaxPayloadBytes = 1 << 20 // 1 MiB

// BitChain is an addressable entity instance.
//
// The address is derived once at creation from (coordinates, payload) and is
// never mutated afterwards.
type BitChain struct {
	ID          string                 `json:"id"`
	EntityType  string                 `json:"entity_type"`
	Coordinates coordinate.Coordinates `json:"coordinates"`
	CreatedAt   time.Time              `json:"created_at"`
	Payload     Payload                `json:"payload"`
	Address     string                 `json:"address,omitempty"`
}

// NewID mints an opaque unique entity identifier.
func NewID() string { return uuid.NewString() }

// Stage names one of the five compression stages.
type Stage string

const (
	StageOriginal  Stage = "original"
	StageFragments Stage = "fragments"
	StageCluster   Stage = "cluster"
	StageGlyph     Stage = "glyph"
	StageMist      Stage = "mist"
)

// Stages lists the five stages in pipeline order.
var Stages = [5]Stage{StageOriginal, StageFragments, StageCluster, StageGlyph, StageMist}

// Valid reports whether s is one of the five pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageOriginal, StageFragments, StageCluster, StageGlyph, StageMist:
		return true
	}
	return false
}

// CompressionArtifact is the output of one pipeline stage.
type CompressionArtifact struct {
	ID         string  `json:"id"`
	Stage      Stage   `json:"stage"`
	EntityID   string  `json:"entity_id"`
	ByteSize   int     `json:"byte_size"`
	// LuminosityDecay tracks how much activity signal survives this stage,
	// as a fraction of the original entity's luminosity in [0,1].
	LuminosityDecay float64 `json:"luminosity_decay"`
	Expandable      bool    `json:"expandable"`
	// Provenance is the artifact id of the prior stage; empty for the
	// original stage.
	Provenance string `json:"provenance,omitempty"`
	Data       []byte `json:"data"`
}

// EntanglementPair records a scored relationship between two entities.
type EntanglementPair struct {
	IDA       string  `json:"id_a"`
	IDB       string  `json:"id_b"`
	Resonance float64 `json:"resonance_score"`
	Entangled bool    `json:"classified_entangled"`
}

// LUCARecord is the irreducible minimal encoding of an entity. It carries
// just enough to reconstruct identity (id, realm, lineage, address) with
// full fidelity; payload fidelity follows the mist stage's partial contract.
type LUCARecord struct {
	EntityID string           `json:"entity_id"`
	Realm    coordinate.Realm `json:"realm"`
	Lineage  int              `json:"lineage"`
	Address  string           `json:"address"`
	// Minimal is the compressed minimal payload. Opaque to callers.
	Minimal []byte `json:"minimal"`
}
