// Package metrics exposes Prometheus instrumentation for the service's
// business operations and HTTP surface.
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics counts and times the domain operations: transcription,
// analysis, and segmentation.
type BusinessMetrics struct {
	TranscriptionsTotal   *prometheus.CounterVec
	TranscriptionDuration *prometheus.HistogramVec
	AnalysesTotal         *prometheus.CounterVec
	AnalysisDuration      *prometheus.HistogramVec
	SegmentationsTotal    *prometheus.CounterVec
	SegmentsProduced      prometheus.Counter
	CaptionLinesTotal     prometheus.Counter
}

var (
	businessOnce sync.Once
	business     *BusinessMetrics
)

// NewBusinessMetrics registers the business metric set under the given
// namespace. Metrics register once; later calls return the same set.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	businessOnce.Do(func() {
		business = &BusinessMetrics{
			TranscriptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transcriptions_total",
				Help:      "Audio transcription tasks by status.",
			}, []string{"status"}),
			TranscriptionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transcription_duration_seconds",
				Help:      "Audio transcription latency.",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			}, []string{"status"}),
			AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Transcript analyses by status.",
			}, []string{"status"}),
			AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Transcript analysis latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			SegmentationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segmentations_total",
				Help:      "Transcript segmentations by strategy.",
			}, []string{"strategy"}),
			SegmentsProduced: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_produced_total",
				Help:      "Segments attributed to questions.",
			}),
			CaptionLinesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "caption_lines_total",
				Help:      "Live caption lines received over websocket.",
			}),
		}
	})
	return business
}

// ObserveDurationWithExemplar records a duration on the status-labeled
// histogram, attaching the current trace ID as an exemplar when one is
// present so dashboards can link latency outliers to traces.
func (m *BusinessMetrics) ObserveDurationWithExemplar(ctx context.Context, vec *prometheus.HistogramVec, seconds float64, status string) {
	observer := vec.WithLabelValues(status)

	spanCtx := trace.SpanContextFromContext(ctx)
	if exemplarObserver, ok := observer.(prometheus.ExemplarObserver); ok && spanCtx.HasTraceID() {
		exemplarObserver.ObserveWithExemplar(seconds, prometheus.Labels{
			"trace_id": spanCtx.TraceID().String(),
		})
		return
	}
	observer.Observe(seconds)
}
