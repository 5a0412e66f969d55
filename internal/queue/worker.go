package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/zombar/interviewlens/internal/analyzer"
	"github.com/zombar/interviewlens/internal/blob"
	"github.com/zombar/interviewlens/internal/database"
	"github.com/zombar/interviewlens/internal/transcribe"
	"github.com/zombar/interviewlens/pkg/metrics"
)

// Worker wraps the Asynq server for processing tasks
type Worker struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	db              *database.DB
	engine          *analyzer.Engine
	backend         transcribe.Backend
	blobs           blob.Store
	queueClient     *Client
	concurrency     int
	logger          *slog.Logger
	businessMetrics *metrics.BusinessMetrics
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a new queue worker
func NewWorker(
	cfg WorkerConfig,
	db *database.DB,
	engine *analyzer.Engine,
	backend transcribe.Backend,
	blobs blob.Store,
	queueClient *Client,
) *Worker {
	serverCfg := asynq.Config{
		Concurrency: cfg.Concurrency,

		// Transcription feeds the other two stages, so it drains first;
		// queues are still processed proportionally, not strictly.
		Queues: map[string]int{
			QueueTranscription: 7,
			QueueAnalysis:      5,
			QueueSegmentation:  3,
		},
		StrictPriority: false,

		RetryDelayFunc: retryDelay,

		ShutdownTimeout: 30 * time.Second,

		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			slog.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)
		}),
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, serverCfg)
	mux := asynq.NewServeMux()

	w := &Worker{
		server:          server,
		mux:             mux,
		db:              db,
		engine:          engine,
		backend:         backend,
		blobs:           blobs,
		queueClient:     queueClient,
		concurrency:     cfg.Concurrency,
		logger:          slog.Default(),
		businessMetrics: metrics.NewBusinessMetrics("interviewlens"),
	}

	w.registerHandlers()

	return w
}

// retryDelay backs off aggressively for transcription, whose failures are
// usually provider outages, and briefly for the local stages.
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	if task.Type() == TypeTranscribeAudio {
		// 30s, 1m, 2m, 5m, 10m, 20m, 30m, 1h, 2h, 4h
		delays := []time.Duration{
			30 * time.Second,
			1 * time.Minute,
			2 * time.Minute,
			5 * time.Minute,
			10 * time.Minute,
			20 * time.Minute,
			30 * time.Minute,
			1 * time.Hour,
			2 * time.Hour,
			4 * time.Hour,
		}
		if n < len(delays) {
			return delays[n]
		}
		return delays[len(delays)-1]
	}

	// 1m, 5m, 15m for analysis and segmentation
	delays := []time.Duration{
		1 * time.Minute,
		5 * time.Minute,
		15 * time.Minute,
	}
	if n < len(delays) {
		return delays[n]
	}
	return delays[len(delays)-1]
}

// registerHandlers registers all task handlers with the worker
func (w *Worker) registerHandlers() {
	w.mux.HandleFunc(TypeTranscribeAudio, w.handleTranscribeAudio)
	w.mux.HandleFunc(TypeAnalyzeTranscript, w.handleAnalyzeTranscript)
	w.mux.HandleFunc(TypeSegmentTranscript, w.handleSegmentTranscript)
}

// Start starts the worker to begin processing tasks
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker",
		"concurrency", w.concurrency,
		"queues", map[string]int{QueueTranscription: 7, QueueAnalysis: 5, QueueSegmentation: 3},
	)

	// Run is blocking - starts processing tasks
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}
