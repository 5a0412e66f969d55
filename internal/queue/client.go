package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeTranscribeAudio   = "interviewlens:transcribe_audio"
	TypeAnalyzeTranscript = "interviewlens:analyze_transcript"
	TypeSegmentTranscript = "interviewlens:segment_transcript"
)

// Queue names in priority order.
const (
	QueueTranscription = "transcription"
	QueueAnalysis      = "analysis"
	QueueSegmentation  = "segmentation"
)

// TranscribeAudioPayload carries a session's uploaded audio reference to
// the speech-to-text worker.
type TranscribeAudioPayload struct {
	SessionID string `json:"session_id"`
	AudioRef  string `json:"audio_ref"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// AnalyzeTranscriptPayload carries transcript text to the analysis worker.
type AnalyzeTranscriptPayload struct {
	SessionID  string `json:"session_id"`
	Transcript string `json:"transcript"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"`
}

// SegmentTranscriptPayload requests segmentation of a stored session; the
// worker loads the transcript and question list from the database.
type SegmentTranscriptPayload struct {
	SessionID string `json:"session_id"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"`
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}),
	}
}

// EnqueueTranscribeAudio enqueues a high-priority transcription task.
func (c *Client) EnqueueTranscribeAudio(ctx context.Context, sessionID, audioRef string) (string, error) {
	payload := TranscribeAudioPayload{
		SessionID:  sessionID,
		AudioRef:   audioRef,
		EnqueuedAt: time.Now().UnixNano(),
	}
	payload.TraceID, payload.SpanID = recordEnqueue(ctx, TypeTranscribeAudio, sessionID, payload.EnqueuedAt)

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeTranscribeAudio, payloadBytes, asynq.TaskID(sessionID+"-transcribe"))

	opts := []asynq.Option{
		asynq.MaxRetry(10),                  // External speech API; tolerate long outages
		asynq.Timeout(15 * time.Minute),     // Long recordings transcribe slowly
		asynq.Queue(QueueTranscription),
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue transcribe audio task: %w", err)
	}

	return info.ID, nil
}

// EnqueueAnalyzeTranscript enqueues a transcript analysis task.
func (c *Client) EnqueueAnalyzeTranscript(ctx context.Context, sessionID, transcript string) (string, error) {
	payload := AnalyzeTranscriptPayload{
		SessionID:  sessionID,
		Transcript: transcript,
		EnqueuedAt: time.Now().UnixNano(),
	}
	payload.TraceID, payload.SpanID = recordEnqueue(ctx, TypeAnalyzeTranscript, sessionID, payload.EnqueuedAt)

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAnalyzeTranscript, payloadBytes, asynq.TaskID(sessionID+"-analyze"))

	opts := []asynq.Option{
		asynq.MaxRetry(3),                   // Analysis is local and deterministic
		asynq.Timeout(5 * time.Minute),
		asynq.Queue(QueueAnalysis),
		asynq.Retention(7 * 24 * time.Hour),
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue analyze transcript task: %w", err)
	}

	return info.ID, nil
}

// EnqueueSegmentTranscript enqueues a transcript segmentation task.
func (c *Client) EnqueueSegmentTranscript(ctx context.Context, sessionID string) (string, error) {
	payload := SegmentTranscriptPayload{
		SessionID:  sessionID,
		EnqueuedAt: time.Now().UnixNano(),
	}
	payload.TraceID, payload.SpanID = recordEnqueue(ctx, TypeSegmentTranscript, sessionID, payload.EnqueuedAt)

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeSegmentTranscript, payloadBytes, asynq.TaskID(sessionID+"-segment"))

	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(5 * time.Minute),
		asynq.Queue(QueueSegmentation),
		asynq.Retention(7 * 24 * time.Hour),
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue segment transcript task: %w", err)
	}

	return info.ID, nil
}

// recordEnqueue captures the caller's span identifiers for the payload and
// marks the enqueue on the active span.
func recordEnqueue(ctx context.Context, taskType, sessionID string, enqueuedAt int64) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", ""
	}

	spanCtx := span.SpanContext()
	span.AddEvent("task_enqueued", trace.WithAttributes(
		attribute.String("task.type", taskType),
		attribute.String("session_id", sessionID),
		attribute.Int64("enqueued_at", enqueuedAt),
	))

	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
