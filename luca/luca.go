// Package luca implements the LUCA ("last universal common ancestor")
// bootstrap: the irreducible minimal encoding of an entity from which
// identity can always be reconstructed.
//
// LUCA builds on the compression pipeline's terminal mist form, but holds a
// stricter contract than the pipeline's partial recovery: id, realm, lineage
// and address come back with 100% fidelity, and a ToLUCA/FromLUCA round trip
// repeated any number of times drifts by nothing. Its value is
// reconstructability, not size: the record stays the same order of magnitude
// as the original serialized entity, landing below it once payloads pass the
// inline limit.
package luca

import (
	"context"
	"errors"
	"fmt"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/compress"
)

// ErrMissingAddress is returned when an entity reaches ToLUCA before its
// address was derived. Identity reconstruction requires the address.
var ErrMissingAddress = errors.New("luca: entity has no address")

// Bootstrap converts entities to and from LUCA records.
type Bootstrap struct {
	pipeline *compress.Pipeline
}

// New creates a Bootstrap over the given pipeline. A nil pipeline gets the
// default one.
func New(p *compress.Pipeline) *Bootstrap {
	if p == nil {
		p = compress.NewPipeline()
	}
	return &Bootstrap{pipeline: p}
}

// ToLUCA reduces an entity to its LUCA record. The record carries the
// identity fields verbatim plus the pipeline's terminal mist bytes as the
// minimal payload.
func (b *Bootstrap) ToLUCA(ctx context.Context, bc *bitchain.BitChain) (*bitchain.LUCARecord, error) {
	if bc == nil {
		return nil, errors.New("luca: nil entity")
	}
	if bc.Address == "" {
		return nil, ErrMissingAddress
	}

	chain, err := b.pipeline.Compress(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("luca: minimal encoding failed: %w", err)
	}
	term := chain.Terminal()
	if term == nil || term.Stage != bitchain.StageMist {
		return nil, errors.New("luca: pipeline produced no terminal mist artifact")
	}

	return &bitchain.LUCARecord{
		EntityID: bc.ID,
		Realm:    bc.Coordinates.Realm,
		Lineage:  bc.Coordinates.Lineage,
		Address:  bc.Address,
		Minimal:  term.Data,
	}, nil
}

// FromLUCA reconstructs an entity from its LUCA record. Identity fields come
// from the record itself and are therefore exact; the remainder follows the
// mist stage's partial-recovery behavior.
func (b *Bootstrap) FromLUCA(ctx context.Context, rec *bitchain.LUCARecord) (*bitchain.BitChain, error) {
	if rec == nil {
		return nil, errors.New("luca: nil record")
	}

	// A single mist artifact is a valid truncated chain for expansion.
	bc, err := b.pipeline.Expand(ctx, compress.Chain{
		EntityID: rec.EntityID,
		Artifacts: []bitchain.CompressionArtifact{{
			ID:       bitchain.NewID(),
			Stage:    bitchain.StageMist,
			EntityID: rec.EntityID,
			ByteSize: len(rec.Minimal),
			Data:     rec.Minimal,
		}},
	})
	if err != nil {
		return nil, err
	}

	// The record's identity fields are authoritative.
	bc.ID = rec.EntityID
	bc.Address = rec.Address
	bc.Coordinates.Realm = rec.Realm
	bc.Coordinates.Lineage = rec.Lineage
	return bc, nil
}
