package bitchain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PayloadKind tags the closed set of payload variants.
type PayloadKind uint8

const (
	// PayloadText is free-form narrative text.
	PayloadText PayloadKind = iota
	// PayloadState is key-value entity state, serialized with sorted keys.
	PayloadState
	// PayloadVector is a numeric embedding or measurement series.
	PayloadVector
	// PayloadBytes is the opaque fallback for content the engine does not
	// interpret. The compression pipeline treats it as a single fragment.
	PayloadBytes
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadState:
		return "state"
	case PayloadVector:
		return "vector"
	case PayloadBytes:
		return "bytes"
	default:
		return fmt.Sprintf("payload(%d)", uint8(k))
	}
}

// Payload is a tagged-variant content blob. Exactly one variant field is
// populated, selected by Kind.
type Payload struct {
	Kind   PayloadKind       `json:"kind"`
	Text   string            `json:"text,omitempty"`
	State  map[string]string `json:"state,omitempty"`
	Vector []float64         `json:"vector,omitempty"`
	Bytes  []byte            `json:"bytes,omitempty"`
}

// TextPayload wraps free-form text.
func TextPayload(s string) Payload { return Payload{Kind: PayloadText, Text: s} }

// StatePayload wraps key-value state.
func StatePayload(state map[string]string) Payload {
	return Payload{Kind: PayloadState, State: state}
}

// VectorPayload wraps a numeric series.
func VectorPayload(v []float64) Payload { return Payload{Kind: PayloadVector, Vector: v} }

// BytesPayload wraps opaque bytes.
func BytesPayload(b []byte) Payload { return Payload{Kind: PayloadBytes, Bytes: b} }

// Fingerprint returns a canonical byte serialization of the payload for
// address digests. The encoding is deterministic: state keys are sorted and
// vector values are formatted with full precision, so equal payloads always
// produce equal fingerprints regardless of map iteration order.
func (p Payload) Fingerprint() []byte {
	switch p.Kind {
	case PayloadText:
		return append([]byte("t:"), p.Text...)
	case PayloadState:
		keys := make([]string, 0, len(p.State))
		for k := range p.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte("s:")
		for _, k := range keys {
			out = append(out, k...)
			out = append(out, 0x1f)
			out = append(out, p.State[k]...)
			out = append(out, 0x1e)
		}
		return out
	case PayloadVector:
		out := []byte("v:")
		for _, f := range p.Vector {
			out = append(out, fmt.Sprintf("%.17g", f)...)
			out = append(out, 0x1e)
		}
		return out
	case PayloadBytes:
		return append([]byte("b:"), p.Bytes...)
	default:
		return []byte("?:")
	}
}

// Size returns the serialized payload size in bytes.
func (p Payload) Size() int {
	b, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return len(b)
}

// Validate checks the variant invariant and the size bound.
func (p Payload) Validate() error {
	switch p.Kind {
	case PayloadText, PayloadState, PayloadVector, PayloadBytes:
	default:
		return fmt.Errorf("bitchain: unknown payload kind %d", p.Kind)
	}
	if n := p.Size(); n > MaxPayloadBytes {
		return fmt.Errorf("bitchain: payload size %d exceeds limit %d", n, MaxPayloadBytes)
	}
	return nil
}
