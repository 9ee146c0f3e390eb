package stat7

import (
	"log/slog"

	"github.com/stat7-io/stat7/blobstore"
	"github.com/stat7-io/stat7/codec"
	"github.com/stat7-io/stat7/compress"
	"github.com/stat7-io/stat7/embedding"
	"github.com/stat7-io/stat7/entangle"
	"github.com/stat7-io/stat7/resource"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	embedder         embedding.Provider
	store            blobstore.Store
	controller       *resource.Controller
	pipelineOptFns   []func(o *compress.Options)
	detectorOptFns   []func(o *entangle.Options)
}

// Option configures engine constructor behavior.
type Option func(*options)

// WithCodec configures the codec used for artifact serialization.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &stat7.BasicMetricsCollector{}
//	eng, _ := stat7.New(stat7.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := stat7.NewJSONLogger(slog.LevelInfo)
//	eng, _ := stat7.New(stat7.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithEmbedder configures the embedding provider used by the glyph
// compression stage and by semantic scoring in hybrid queries. Defaults to
// the deterministic local provider.
func WithEmbedder(p embedding.Provider) Option {
	return func(o *options) {
		o.embedder = p
	}
}

// WithArtifactStore configures persistence for compression artifacts.
// Compress writes every produced artifact to the store; ExpandStored reads
// them back. Without a store, chains live only in the caller's hands.
func WithArtifactStore(s blobstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithResourceController bounds batch compression concurrency and artifact
// IO byte rates.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithPipelineOptions forwards options to the compression pipeline.
func WithPipelineOptions(optFns ...func(o *compress.Options)) Option {
	return func(o *options) {
		o.pipelineOptFns = append(o.pipelineOptFns, optFns...)
	}
}

// WithDetectorOptions forwards options to the entanglement detector.
func WithDetectorOptions(optFns ...func(o *entangle.Options)) Option {
	return func(o *options) {
		o.detectorOptFns = append(o.detectorOptFns, optFns...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            nil,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
