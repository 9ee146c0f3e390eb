// Package embedding defines the pluggable text-embedding provider used by
// the glyph compression stage and hybrid queries.
//
// Providers expose one capability, Embed, so provider-specific failure modes
// (network, quotas, model drift) stay isolated from the core engine. A
// factory selects between the local deterministic provider and a remote
// OpenAI-compatible one.
package embedding

import (
	"context"
	"fmt"
)

// Provider produces fixed-dimension embedding vectors for text.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector dimensionality this provider emits.
	Dimension() int

	// Name returns the stable provider name.
	Name() string
}

// Kind selects a provider implementation.
type Kind string

const (
	// KindLocal is the deterministic in-process provider.
	KindLocal Kind = "local"
	// KindOpenAI is the remote OpenAI-compatible provider.
	KindOpenAI Kind = "openai"
)

// Config configures provider construction.
type Config struct {
	Kind Kind

	// Dimension applies to the local provider. Defaults to 64.
	Dimension int

	// APIKey, BaseURL and Model apply to the remote provider. BaseURL may
	// point at any OpenAI-compatible endpoint; empty means the default API.
	APIKey  string
	BaseURL string
	Model   string
}

// New constructs a provider for the configured kind.
func New(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case KindLocal, "":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 64
		}
		return NewLocal(dim), nil
	case KindOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("embedding: unknown provider kind %q", cfg.Kind)
	}
}
