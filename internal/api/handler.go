package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/zombar/interviewlens/internal/analyzer"
	"github.com/zombar/interviewlens/internal/blob"
	"github.com/zombar/interviewlens/internal/database"
	"github.com/zombar/interviewlens/internal/models"
	"github.com/zombar/interviewlens/internal/segmenter"
	"github.com/zombar/interviewlens/pkg/metrics"
)

// maxAudioUploadBytes caps a single audio upload at 256 MiB.
const maxAudioUploadBytes = 256 << 20

// Handler handles HTTP requests
type Handler struct {
	db              *database.DB
	engine          *analyzer.Engine
	blobs           blob.Store
	queueClient     QueueClient
	mux             *http.ServeMux
	logger          *slog.Logger
	businessMetrics *metrics.BusinessMetrics
}

// QueueClient is the interface for enqueueing background tasks
type QueueClient interface {
	EnqueueTranscribeAudio(ctx context.Context, sessionID, audioRef string) (string, error)
	EnqueueAnalyzeTranscript(ctx context.Context, sessionID, transcript string) (string, error)
	EnqueueSegmentTranscript(ctx context.Context, sessionID string) (string, error)
}

// NewHandler creates a new API handler
func NewHandler(db *database.DB, engine *analyzer.Engine, blobs blob.Store, queueClient QueueClient) http.Handler {
	h := &Handler{
		db:              db,
		engine:          engine,
		blobs:           blobs,
		queueClient:     queueClient,
		mux:             http.NewServeMux(),
		logger:          slog.Default(),
		businessMetrics: metrics.NewBusinessMetrics("interviewlens"),
	}

	h.setupRoutes()

	// Configure CORS for the browser recording UI
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

// setupRoutes configures the HTTP routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/health", h.handleHealth)
	h.mux.HandleFunc("/api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("/api/segment", h.handleSegment)
	h.mux.HandleFunc("/api/sessions", h.handleSessions)
	h.mux.HandleFunc("/api/sessions/", h.handleSessionByID)
	h.mux.HandleFunc("/ws/captions", h.handleCaptions)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}

// analyzeRequest is the request body for synchronous analysis.
type analyzeRequest struct {
	Text string `json:"text"`
}

// handleAnalyze runs the analysis pipeline synchronously and returns the
// report without persisting anything.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	timer := time.Now()
	report := h.engine.Analyze(req.Text)
	duration := time.Since(timer).Seconds()

	status := "success"
	if !report.Success {
		status = "error"
	}
	h.businessMetrics.ObserveDurationWithExemplar(r.Context(), h.businessMetrics.AnalysisDuration, duration, status)
	h.businessMetrics.AnalysesTotal.WithLabelValues(status).Inc()

	respondJSON(w, report, http.StatusOK)
}

// segmentRequest is the request body for synchronous segmentation.
type segmentRequest struct {
	Transcript string            `json:"transcript"`
	Questions  []models.Question `json:"questions"`
	Strategy   string            `json:"strategy,omitempty"` // "fuzzy" (default) or "equal_division"
}

// handleSegment segments a transcript synchronously. The fuzzy strategy
// falls back to equal division when no question could be located.
func (h *Handler) handleSegment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var segments []models.Segment
	strategy := req.Strategy
	switch strategy {
	case "equal_division":
		segments = segmenter.SegmentByEqualDivision(req.Transcript, req.Questions)
	case "", "fuzzy":
		strategy = "fuzzy"
		segments = segmenter.SegmentByFuzzyMatch(req.Transcript, req.Questions)
		if len(segments) == 0 {
			strategy = "equal_division"
			segments = segmenter.SegmentByEqualDivision(req.Transcript, req.Questions)
		} else {
			segments = segmenter.AnnotateTimings(req.Transcript, segments, req.Questions)
		}
	default:
		respondError(w, fmt.Sprintf("Unknown strategy: %s", req.Strategy), http.StatusBadRequest)
		return
	}

	h.businessMetrics.SegmentationsTotal.WithLabelValues(strategy).Inc()
	h.businessMetrics.SegmentsProduced.Add(float64(len(segments)))

	respondJSON(w, map[string]interface{}{
		"strategy": strategy,
		"segments": segments,
	}, http.StatusOK)
}

// createSessionRequest is the request body for creating a session.
type createSessionRequest struct {
	Title     string            `json:"title"`
	Questions []models.Question `json:"questions"`
}

// handleSessions handles POST /api/sessions and GET /api/sessions
func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createSession(w, r)
	case http.MethodGet:
		h.listSessions(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		respondError(w, "Title is required", http.StatusBadRequest)
		return
	}

	// Assign question IDs and order when the client omitted them.
	for i := range req.Questions {
		if req.Questions[i].ID == "" {
			req.Questions[i].ID = uuid.NewString()
		}
		req.Questions[i].Order = i
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Questions: req.Questions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.db.SaveSession(session); err != nil {
		h.logger.Error("failed to save session", "error", err)
		respondError(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("session created",
		"session_id", session.ID,
		"question_count", len(session.Questions),
	)

	respondJSON(w, session, http.StatusCreated)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	sessions, err := h.db.ListSessions(limit, offset)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		respondError(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
		"limit":    limit,
		"offset":   offset,
	}, http.StatusOK)
}

// handleSessionByID routes /api/sessions/{id} and /api/sessions/{id}/audio
func (h *Handler) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		respondError(w, "Session ID required", http.StatusBadRequest)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.getSession(w, r, id)
		case http.MethodDelete:
			h.deleteSession(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "audio":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.uploadAudio(w, r, id)
	default:
		respondError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.db.GetSession(id)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			respondError(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get session", "session_id", id, "error", err)
		respondError(w, "Failed to get session", http.StatusInternalServerError)
		return
	}

	respondJSON(w, session, http.StatusOK)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.db.GetSession(id)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			respondError(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get session", "session_id", id, "error", err)
		respondError(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}

	if err := h.db.DeleteSession(id); err != nil {
		h.logger.Error("failed to delete session", "session_id", id, "error", err)
		respondError(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}

	// Best effort: the row is gone either way.
	if session.AudioRef != "" {
		if err := h.blobs.Delete(r.Context(), session.AudioRef); err != nil {
			h.logger.Warn("failed to delete session audio", "session_id", id, "error", err)
		}
	}

	respondJSON(w, map[string]string{"status": "deleted", "id": id}, http.StatusOK)
}

// uploadAudio stores the uploaded recording and enqueues transcription.
func (h *Handler) uploadAudio(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.db.GetSession(id); err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			respondError(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get session", "session_id", id, "error", err)
		respondError(w, "Failed to get session", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, "Audio file required in 'audio' form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ref, err := h.blobs.Put(r.Context(), id, header.Filename, file)
	if err != nil {
		h.logger.Error("failed to store audio", "session_id", id, "error", err)
		respondError(w, "Failed to store audio", http.StatusInternalServerError)
		return
	}

	if err := h.db.UpdateSessionAudioRef(id, ref); err != nil {
		h.logger.Error("failed to record audio ref", "session_id", id, "error", err)
		respondError(w, "Failed to record audio upload", http.StatusInternalServerError)
		return
	}

	taskID, err := h.queueClient.EnqueueTranscribeAudio(r.Context(), id, ref)
	if err != nil {
		h.logger.Error("failed to enqueue transcription", "session_id", id, "error", err)
		respondError(w, "Audio stored but transcription could not be queued", http.StatusInternalServerError)
		return
	}

	h.logger.Info("audio uploaded",
		"session_id", id,
		"audio_ref", ref,
		"size_bytes", header.Size,
		"task_id", taskID,
	)

	respondJSON(w, map[string]string{
		"session_id": id,
		"audio_ref":  ref,
		"task_id":    taskID,
		"status":     "queued",
	}, http.StatusAccepted)
}

// queryInt parses a non-negative integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
