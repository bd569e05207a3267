// Package observe provides OpenTelemetry metric instruments for the
// transcription pipeline. A package-level default instance (DefaultMetrics)
// is provided for the binaries; tests should use NewMetrics with a custom
// metric.MeterProvider to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/yinkev/medasr-go"

// Metrics holds the pipeline's metric instruments. All fields are safe for
// concurrent use. A nil *Metrics is valid: the convenience record methods
// become no-ops, so core code never branches on whether metrics are wired.
type Metrics struct {
	// DecodeDuration tracks per-chunk decode latency (inference excluded).
	DecodeDuration metric.Float64Histogram

	// SegmentsProduced counts emitted transcript segments.
	SegmentsProduced metric.Int64Counter

	// SegmentFailures counts speech ranges whose decode failed.
	SegmentFailures metric.Int64Counter

	// AcousticOnlyDecodes counts decodes that ran without a language model
	// (degraded mode).
	AcousticOnlyDecodes metric.Int64Counter

	// StreamRTF tracks the real-time factor of streaming chunks
	// (processing seconds per audio second; below 1 keeps up with live input).
	StreamRTF metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// chunk decodes of up to ~18s of audio.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised Metrics struct using the given
// metric.MeterProvider. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DecodeDuration, err = m.Float64Histogram("medasr.decode.duration",
		metric.WithDescription("Latency of beam search decoding per audio chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SegmentsProduced, err = m.Int64Counter("medasr.segments.produced",
		metric.WithDescription("Total transcript segments emitted."),
	); err != nil {
		return nil, err
	}
	if met.SegmentFailures, err = m.Int64Counter("medasr.segments.failures",
		metric.WithDescription("Total speech ranges whose decode failed."),
	); err != nil {
		return nil, err
	}
	if met.AcousticOnlyDecodes, err = m.Int64Counter("medasr.decode.acoustic_only",
		metric.WithDescription("Total decodes run without a language model."),
	); err != nil {
		return nil, err
	}
	if met.StreamRTF, err = m.Float64Histogram("medasr.stream.rtf",
		metric.WithDescription("Real-time factor of streaming chunk processing."),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 5),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics instance, creating it on
// first call using otel.GetMeterProvider. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordDecode records one chunk decode with its latency and LM mode.
func (m *Metrics) RecordDecode(ctx context.Context, seconds float64, lmUsed bool) {
	if m == nil {
		return
	}
	m.DecodeDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.Bool("lm", lmUsed)))
	if !lmUsed {
		m.AcousticOnlyDecodes.Add(ctx, 1)
	}
}

// RecordSegments records the outcome counts of one assembly job.
func (m *Metrics) RecordSegments(ctx context.Context, produced, failed int) {
	if m == nil {
		return
	}
	m.SegmentsProduced.Add(ctx, int64(produced))
	if failed > 0 {
		m.SegmentFailures.Add(ctx, int64(failed))
	}
}

// RecordStreamChunk records one streaming chunk's real-time factor.
func (m *Metrics) RecordStreamChunk(ctx context.Context, rtf float64) {
	if m == nil {
		return
	}
	m.StreamRTF.Record(ctx, rtf)
}
