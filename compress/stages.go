package compress

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stat7-io/stat7/bitchain"
	"github.com/stat7-io/stat7/coordinate"
	"github.com/stat7-io/stat7/embedding"
)

// identity is the header copied into every stage record. It is what the
// LUCA contract ultimately needs back with full fidelity.
type identity struct {
	ID         string           `json:"id"`
	EntityType string           `json:"entity_type"`
	Address    string           `json:"address"`
	Realm      coordinate.Realm `json:"realm"`
	Lineage    int              `json:"lineage"`
	CreatedAt  time.Time        `json:"created_at"`
}

func identityOf(bc *bitchain.BitChain) identity {
	return identity{
		ID:         bc.ID,
		EntityType: bc.EntityType,
		Address:    bc.Address,
		Realm:      bc.Coordinates.Realm,
		Lineage:    bc.Coordinates.Lineage,
		CreatedAt:  bc.CreatedAt,
	}
}

// originalRecord is the verbatim stage: the entity as submitted.
type originalRecord struct {
	Identity identity           `json:"identity"`
	Entity   *bitchain.BitChain `json:"entity"`
}

// fragmentsRecord decomposes the payload into minimal semantic units while
// preserving positional order.
type fragmentsRecord struct {
	Identity identity             `json:"identity"`
	Kind     bitchain.PayloadKind `json:"kind"`
	Units    []string             `json:"units"`
	Affect   Affect               `json:"affect"`
}

// clusterGroup is one similarity group. Membership is preserved; the
// original unit order is not.
type clusterGroup struct {
	Label   string   `json:"label"`
	Members []string `json:"members"`
}

type clusterRecord struct {
	Identity identity             `json:"identity"`
	Kind     bitchain.PayloadKind `json:"kind"`
	Clusters []clusterGroup       `json:"clusters"`
	Affect   Affect               `json:"affect"`
}

// glyphEntry is the symbolic/embedding representation of one cluster. The
// embedding is derived signal, which is why the glyph stage may be larger
// than the cluster stage it came from.
type glyphEntry struct {
	Symbol    string    `json:"symbol"`
	Members   []string  `json:"members"`
	Embedding []float32 `json:"embedding"`
}

type glyphRecord struct {
	Identity identity             `json:"identity"`
	Kind     bitchain.PayloadKind `json:"kind"`
	Glyphs   []glyphEntry         `json:"glyphs"`
	Affect   Affect               `json:"affect"`
}

// coordHints is the partial coordinate signal that survives to the mist
// stage. Realm and lineage are exact (identity fields); adjacency survives
// only at bucket granularity; horizon survives; luminosity, polarity and
// dimensionality do not survive deep compression.
type coordHints struct {
	AdjacencyBucket int               `json:"adjacency_bucket"`
	Horizon         coordinate.Horizon `json:"horizon"`
}

// mistRecord is the terminal stage: provenance plus narrative-preserving
// signal only. InlinePayload is set when the payload was small enough to
// carry verbatim, which is the only case full-fidelity expansion from mist
// is possible.
type mistRecord struct {
	Identity      identity          `json:"identity"`
	Kind          bitchain.PayloadKind `json:"kind"`
	Symbols       []string          `json:"symbols"`
	Centroid      []float32         `json:"centroid,omitempty"`
	Affect        Affect            `json:"affect"`
	Hints         coordHints        `json:"hints"`
	InlinePayload *bitchain.Payload `json:"inline_payload,omitempty"`
}

// inlinePayloadLimit is the serialized payload size up to which the mist
// stage stays fully expandable.
const inlinePayloadLimit = 256

// fragmentPayload splits a payload into its minimal semantic units.
//
// Text splits on sentence boundaries; state becomes one key=value unit per
// entry (sorted by key, which is already canonical order for state); vectors
// chunk into fixed-size runs; opaque bytes stay whole as a single base64
// unit, since the engine cannot see inside them.
func fragmentPayload(p bitchain.Payload) []string {
	switch p.Kind {
	case bitchain.PayloadText:
		return splitSentences(p.Text)
	case bitchain.PayloadState:
		keys := make([]string, 0, len(p.State))
		for k := range p.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		units := make([]string, 0, len(keys))
		for _, k := range keys {
			units = append(units, k+"="+p.State[k])
		}
		return units
	case bitchain.PayloadVector:
		const run = 8
		var units []string
		for i := 0; i < len(p.Vector); i += run {
			end := min(i+run, len(p.Vector))
			parts := make([]string, 0, end-i)
			for _, f := range p.Vector[i:end] {
				parts = append(parts, fmt.Sprintf("%.17g", f))
			}
			units = append(units, strings.Join(parts, ","))
		}
		return units
	case bitchain.PayloadBytes:
		if len(p.Bytes) == 0 {
			return nil
		}
		return []string{base64.StdEncoding.EncodeToString(p.Bytes)}
	default:
		return nil
	}
}

func splitSentences(text string) []string {
	var units []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if u := strings.TrimSpace(sb.String()); u != "" {
				units = append(units, u)
			}
			sb.Reset()
		}
	}
	if u := strings.TrimSpace(sb.String()); u != "" {
		units = append(units, u)
	}
	return units
}

// clusterUnits greedily groups units by token overlap. A unit joins the
// first cluster whose representative shares at least minOverlap Jaccard
// similarity; otherwise it seeds a new cluster.
func clusterUnits(units []string) []clusterGroup {
	const minOverlap = 0.3

	var groups []clusterGroup
	var reps [][]string // token sets aligned with groups
	for _, u := range units {
		toks := embedding.Tokenize(u)
		placed := false
		for i, rep := range reps {
			if jaccard(toks, rep) >= minOverlap {
				groups[i].Members = append(groups[i].Members, u)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, clusterGroup{Label: clusterLabel(toks, u), Members: []string{u}})
			reps = append(reps, toks)
		}
	}
	return groups
}

func clusterLabel(tokens []string, fallback string) string {
	if len(tokens) > 0 {
		return tokens[0]
	}
	if len(fallback) > 12 {
		return fallback[:12]
	}
	return fallback
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	bset := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := bset[t]; dup {
			continue
		}
		bset[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union := len(set) + len(bset) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// glyphify turns clusters into symbolic entries with embeddings.
func (p *Pipeline) glyphify(ctx context.Context, clusters []clusterGroup) ([]glyphEntry, error) {
	glyphs := make([]glyphEntry, 0, len(clusters))
	for _, c := range clusters {
		text := strings.Join(c.Members, " ")
		vec, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		glyphs = append(glyphs, glyphEntry{
			Symbol:    c.Label,
			Members:   c.Members,
			Embedding: vec,
		})
	}
	return glyphs, nil
}

// centroid averages glyph embeddings into one narrative vector.
func centroid(glyphs []glyphEntry) []float32 {
	if len(glyphs) == 0 {
		return nil
	}
	dim := len(glyphs[0].Embedding)
	out := make([]float32, dim)
	n := 0
	for _, g := range glyphs {
		if len(g.Embedding) != dim {
			continue
		}
		for i, v := range g.Embedding {
			out[i] += v
		}
		n++
	}
	if n == 0 {
		return nil
	}
	inv := float32(1) / float32(n)
	for i := range out {
		out[i] *= inv
	}
	return out
}
