package stat7

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// NewPrometheusCollector for a ready-made Prometheus integration.
type MetricsCollector interface {
	// RecordSubmit is called after each submit operation.
	// duration is the total time taken, err is nil if successful.
	RecordSubmit(duration time.Duration, err error)

	// RecordBatchSubmit is called after each batch submit operation.
	// count is the number of items attempted, failed is the number that
	// failed, duration is the total time taken.
	RecordBatchSubmit(count, failed int, duration time.Duration)

	// RecordLookup is called after each exact-address lookup.
	RecordLookup(duration time.Duration, found bool)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordRangeQuery is called after each completed range query scan.
	// matched is the number of entities yielded.
	RecordRangeQuery(matched int, duration time.Duration)

	// RecordHybridQuery is called after each hybrid query.
	RecordHybridQuery(k int, duration time.Duration, err error)

	// RecordCompress is called after each compression run. stages is the
	// number of artifacts produced.
	RecordCompress(stages int, duration time.Duration, err error)

	// RecordExpand is called after each reconstruction run.
	RecordExpand(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSubmit(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchSubmit(int, int, time.Duration)   {}
func (NoopMetricsCollector) RecordLookup(time.Duration, bool)            {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)           {}
func (NoopMetricsCollector) RecordRangeQuery(int, time.Duration)         {}
func (NoopMetricsCollector) RecordHybridQuery(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCompress(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordExpand(time.Duration, error)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SubmitCount       atomic.Int64
	SubmitErrors      atomic.Int64
	SubmitTotalNanos  atomic.Int64
	BatchSubmitCount  atomic.Int64
	BatchSubmitItems  atomic.Int64
	BatchSubmitFailed atomic.Int64
	LookupCount       atomic.Int64
	LookupMisses      atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	RangeQueryCount   atomic.Int64
	RangeQueryMatched atomic.Int64
	HybridQueryCount  atomic.Int64
	HybridQueryErrors atomic.Int64
	HybridTotalNanos  atomic.Int64
	CompressCount     atomic.Int64
	CompressErrors    atomic.Int64
	ExpandCount       atomic.Int64
	ExpandErrors      atomic.Int64
}

// RecordSubmit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubmit(duration time.Duration, err error) {
	b.SubmitCount.Add(1)
	b.SubmitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SubmitErrors.Add(1)
	}
}

// RecordBatchSubmit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchSubmit(count, failed int, duration time.Duration) {
	b.BatchSubmitCount.Add(1)
	b.BatchSubmitItems.Add(int64(count))
	b.BatchSubmitFailed.Add(int64(failed))
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(duration time.Duration, found bool) {
	b.LookupCount.Add(1)
	if !found {
		b.LookupMisses.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordRangeQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeQuery(matched int, duration time.Duration) {
	b.RangeQueryCount.Add(1)
	b.RangeQueryMatched.Add(int64(matched))
}

// RecordHybridQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHybridQuery(k int, duration time.Duration, err error) {
	b.HybridQueryCount.Add(1)
	b.HybridTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.HybridQueryErrors.Add(1)
	}
}

// RecordCompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompress(stages int, duration time.Duration, err error) {
	b.CompressCount.Add(1)
	if err != nil {
		b.CompressErrors.Add(1)
	}
}

// RecordExpand implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExpand(duration time.Duration, err error) {
	b.ExpandCount.Add(1)
	if err != nil {
		b.ExpandErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SubmitCount:       b.SubmitCount.Load(),
		SubmitErrors:      b.SubmitErrors.Load(),
		SubmitAvgNanos:    b.avgSubmitNanos(),
		BatchSubmitCount:  b.BatchSubmitCount.Load(),
		BatchSubmitItems:  b.BatchSubmitItems.Load(),
		BatchSubmitFailed: b.BatchSubmitFailed.Load(),
		LookupCount:       b.LookupCount.Load(),
		LookupMisses:      b.LookupMisses.Load(),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		RangeQueryCount:   b.RangeQueryCount.Load(),
		RangeQueryMatched: b.RangeQueryMatched.Load(),
		HybridQueryCount:  b.HybridQueryCount.Load(),
		HybridQueryErrors: b.HybridQueryErrors.Load(),
		HybridAvgNanos:    b.avgHybridNanos(),
		CompressCount:     b.CompressCount.Load(),
		CompressErrors:    b.CompressErrors.Load(),
		ExpandCount:       b.ExpandCount.Load(),
		ExpandErrors:      b.ExpandErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgSubmitNanos() int64 {
	count := b.SubmitCount.Load()
	if count == 0 {
		return 0
	}
	return b.SubmitTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) avgHybridNanos() int64 {
	count := b.HybridQueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.HybridTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SubmitCount       int64
	SubmitErrors      int64
	SubmitAvgNanos    int64
	BatchSubmitCount  int64
	BatchSubmitItems  int64
	BatchSubmitFailed int64
	LookupCount       int64
	LookupMisses      int64
	DeleteCount       int64
	DeleteErrors      int64
	RangeQueryCount   int64
	RangeQueryMatched int64
	HybridQueryCount  int64
	HybridQueryErrors int64
	HybridAvgNanos    int64
	CompressCount     int64
	CompressErrors    int64
	ExpandCount       int64
	ExpandErrors      int64
}
