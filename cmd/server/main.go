package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zombar/interviewlens/internal/analyzer"
	"github.com/zombar/interviewlens/internal/api"
	"github.com/zombar/interviewlens/internal/auth"
	"github.com/zombar/interviewlens/internal/blob"
	"github.com/zombar/interviewlens/internal/database"
	"github.com/zombar/interviewlens/internal/queue"
	"github.com/zombar/interviewlens/internal/tracing"
	"github.com/zombar/interviewlens/internal/transcribe"
	"github.com/zombar/interviewlens/pkg/logging"
	"github.com/zombar/interviewlens/pkg/metrics"
)

func main() {
	// Local development reads configuration from .env; in deployment the
	// environment is already populated.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("interviewlens service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("interviewlens")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Get default values from environment variables, with fallbacks
	portDefault := getEnv("PORT", "8080")
	dbPathDefault := getEnv("DB_PATH", "interviewlens.db")
	redisAddrDefault := getEnv("REDIS_ADDR", "localhost:6379")
	blobDirDefault := getEnv("BLOB_DIR", "audio")
	authTokenDefault := getEnv("AUTH_TOKEN", "")
	openaiKeyDefault := getEnv("OPENAI_API_KEY", "")
	openaiModelDefault := getEnv("OPENAI_MODEL", "whisper-1")
	concurrencyDefault := getEnvInt("WORKER_CONCURRENCY", 4)

	var (
		port        = flag.String("port", portDefault, "Server port (env: PORT)")
		dbPath      = flag.String("db", dbPathDefault, "Database file path (env: DB_PATH)")
		redisAddr   = flag.String("redis", redisAddrDefault, "Redis address for the task queue (env: REDIS_ADDR)")
		blobDir     = flag.String("blob-dir", blobDirDefault, "Directory for uploaded audio (env: BLOB_DIR)")
		authToken   = flag.String("auth-token", authTokenDefault, "Bearer token for API access; empty disables auth (env: AUTH_TOKEN)")
		openaiKey   = flag.String("openai-key", openaiKeyDefault, "OpenAI API key for transcription (env: OPENAI_API_KEY)")
		openaiModel = flag.String("openai-model", openaiModelDefault, "OpenAI transcription model (env: OPENAI_MODEL)")
		concurrency = flag.Int("concurrency", concurrencyDefault, "Worker concurrency (env: WORKER_CONCURRENCY)")
	)
	flag.Parse()

	// Initialize database
	db, err := database.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "database_path", *dbPath)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database metrics
	dbMetrics := metrics.NewDatabaseMetrics("interviewlens")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(db.Conn())
		}
	}()
	logger.Info("database metrics initialized")

	// Initialize blob store for uploaded audio
	blobs, err := blob.NewFSStore(*blobDir)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err, "blob_dir", *blobDir)
		os.Exit(1)
	}

	// Initialize speech-to-text backend
	if *openaiKey == "" {
		logger.Warn("OPENAI_API_KEY not set, transcription tasks will fail until configured")
	}
	backend := transcribe.NewOpenAIBackend(*openaiKey, *openaiModel)

	// Initialize queue client and worker
	queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr})
	defer queueClient.Close()

	worker := queue.NewWorker(
		queue.WorkerConfig{RedisAddr: *redisAddr, Concurrency: *concurrency},
		db, analyzer.New(), backend, blobs, queueClient,
	)
	go func() {
		if err := worker.Start(); err != nil {
			logger.Error("worker failed", "error", err)
			os.Exit(1)
		}
	}()

	// Initialize API handler
	apiHandler := api.NewHandler(db, analyzer.New(), blobs, queueClient)

	// Wrap handler with middleware chain: HTTP logging -> tracing -> auth -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("interviewlens")(
			auth.Middleware(auth.NewTokenVerifier(*authToken))(apiHandler),
		),
	)

	// Create server with extended timeouts for audio uploads
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  10 * time.Minute, // Long recordings upload slowly
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("interviewlens service starting",
			"port", *port,
			"database", *dbPath,
			"redis", *redisAddr,
			"blob_dir", *blobDir,
			"auth_enabled", *authToken != "",
			"transcription_model", *openaiModel,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	worker.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
