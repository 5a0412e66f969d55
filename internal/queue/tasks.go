package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/zombar/interviewlens/internal/database"
	"github.com/zombar/interviewlens/internal/segmenter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handleTranscribeAudio fetches a session's audio blob, runs it through
// the speech-to-text backend, stores the transcript, and enqueues the
// analysis and segmentation stages.
func (w *Worker) handleTranscribeAudio(ctx context.Context, t *asynq.Task) error {
	var payload TranscribeAudioPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	retryCount, _ := asynq.GetRetryCount(ctx)
	queueWait := queueWaitTime(payload.EnqueuedAt)

	w.logger.Info("transcribing session audio",
		"session_id", payload.SessionID,
		"audio_ref", payload.AudioRef,
		"retry_count", retryCount,
		"queue_wait_seconds", queueWait.Seconds(),
	)

	ctx, span := w.taskSpan(ctx, TypeTranscribeAudio, payload.SessionID, payload.TraceID, payload.SpanID, queueWait)
	defer span.End()

	audio, err := w.blobs.Open(ctx, payload.AudioRef)
	if err != nil {
		// A missing blob will not reappear on retry.
		return fmt.Errorf("failed to open audio blob: %v: %w", err, asynq.SkipRetry)
	}
	defer audio.Close()

	timer := time.Now()
	text, err := w.backend.Transcribe(ctx, audio, path.Base(payload.AudioRef))
	duration := time.Since(timer).Seconds()

	if err != nil {
		w.businessMetrics.TranscriptionsTotal.WithLabelValues("error").Inc()

		if isRetriableTranscribeError(err) {
			w.logger.Warn("retriable transcription error, will retry",
				"session_id", payload.SessionID,
				"error", err,
				"retry_count", retryCount,
			)
			return err // Let Asynq retry
		}

		w.logger.Error("permanent transcription error",
			"session_id", payload.SessionID,
			"error", err,
		)
		return fmt.Errorf("transcription failed: %v: %w", err, asynq.SkipRetry)
	}

	w.businessMetrics.ObserveDurationWithExemplar(ctx, w.businessMetrics.TranscriptionDuration, duration, "success")
	w.businessMetrics.TranscriptionsTotal.WithLabelValues("success").Inc()

	if err := w.db.UpdateSessionTranscript(payload.SessionID, text); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	w.logger.Info("transcript saved",
		"session_id", payload.SessionID,
		"transcript_length", len(text),
	)

	// Kick off the derived stages. Enqueue failures are logged, not fatal:
	// the transcript is durable and the stages can be requested again.
	if _, err := w.queueClient.EnqueueAnalyzeTranscript(ctx, payload.SessionID, text); err != nil {
		w.logger.Error("failed to enqueue transcript analysis", "session_id", payload.SessionID, "error", err)
	}
	if _, err := w.queueClient.EnqueueSegmentTranscript(ctx, payload.SessionID); err != nil {
		w.logger.Error("failed to enqueue transcript segmentation", "session_id", payload.SessionID, "error", err)
	}

	return nil
}

// handleAnalyzeTranscript runs the analysis pipeline over the transcript
// and stores the resulting report on the session.
func (w *Worker) handleAnalyzeTranscript(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzeTranscriptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	queueWait := queueWaitTime(payload.EnqueuedAt)

	w.logger.Info("analyzing transcript",
		"session_id", payload.SessionID,
		"transcript_length", len(payload.Transcript),
		"queue_wait_seconds", queueWait.Seconds(),
	)

	ctx, span := w.taskSpan(ctx, TypeAnalyzeTranscript, payload.SessionID, payload.TraceID, payload.SpanID, queueWait)
	defer span.End()

	timer := time.Now()
	report := w.engine.Analyze(payload.Transcript)
	duration := time.Since(timer).Seconds()

	status := "success"
	if !report.Success {
		status = "error"
	}
	w.businessMetrics.ObserveDurationWithExemplar(ctx, w.businessMetrics.AnalysisDuration, duration, status)
	w.businessMetrics.AnalysesTotal.WithLabelValues(status).Inc()

	if err := w.db.UpdateSessionReport(payload.SessionID, &report); err != nil {
		return fmt.Errorf("failed to save analysis report: %w", err)
	}

	w.logger.Info("analysis report saved",
		"session_id", payload.SessionID,
		"sentiment", report.Sentiment.Label,
		"primary_topic", report.Topics.Primary,
	)

	return nil
}

// handleSegmentTranscript attributes the stored transcript to the
// session's questions, preferring fuzzy location and falling back to
// equal division when no question could be located.
func (w *Worker) handleSegmentTranscript(ctx context.Context, t *asynq.Task) error {
	var payload SegmentTranscriptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	queueWait := queueWaitTime(payload.EnqueuedAt)

	ctx, span := w.taskSpan(ctx, TypeSegmentTranscript, payload.SessionID, payload.TraceID, payload.SpanID, queueWait)
	defer span.End()

	session, err := w.db.GetSession(payload.SessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return fmt.Errorf("session gone: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	strategy := "fuzzy"
	segments := segmenter.SegmentByFuzzyMatch(session.Transcript, session.Questions)
	if len(segments) == 0 {
		strategy = "equal_division"
		segments = segmenter.SegmentByEqualDivision(session.Transcript, session.Questions)
	} else {
		// Live-caption transcripts carry inline clock annotations.
		segments = segmenter.AnnotateTimings(session.Transcript, segments, session.Questions)
	}

	w.businessMetrics.SegmentationsTotal.WithLabelValues(strategy).Inc()
	w.businessMetrics.SegmentsProduced.Add(float64(len(segments)))

	if err := w.db.UpdateSessionSegments(payload.SessionID, segments); err != nil {
		return fmt.Errorf("failed to save segments: %w", err)
	}

	w.logger.Info("segments saved",
		"session_id", payload.SessionID,
		"strategy", strategy,
		"segment_count", len(segments),
	)

	return nil
}

// taskSpan resumes the trace recorded at enqueue time, or falls back to
// the current span context when the payload carries none.
func (w *Worker) taskSpan(ctx context.Context, taskType, sessionID, traceHex, spanHex string, queueWait time.Duration) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("task.type", taskType),
		attribute.String("session.id", sessionID),
		attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
	}

	if traceHex != "" && spanHex != "" {
		traceID, terr := trace.TraceIDFromHex(traceHex)
		spanID, serr := trace.SpanIDFromHex(spanHex)
		if terr == nil && serr == nil {
			remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     spanID,
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			})
			ctx = trace.ContextWithRemoteSpanContext(ctx, remoteSpanCtx)
		}
	}

	ctx, span := otel.Tracer("interviewlens").Start(ctx, "asynq.task.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...),
	)
	span.AddEvent("task_processing_started", trace.WithAttributes(
		attribute.Float64("wait_time_seconds", queueWait.Seconds()),
	))
	return ctx, span
}

// queueWaitTime converts the payload enqueue stamp into a wait duration.
func queueWaitTime(enqueuedAt int64) time.Duration {
	if enqueuedAt <= 0 {
		return 0
	}
	return time.Since(time.Unix(0, enqueuedAt))
}

// isRetriableTranscribeError determines if a transcription failure is
// retriable (connection/timeout/provider overload) vs permanent (invalid
// audio or rejected request).
func isRetriableTranscribeError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retriablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"too many requests",
		"http 429",
		"http 500",
		"http 502",
		"http 503",
		"context deadline exceeded",
		"i/o timeout",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
