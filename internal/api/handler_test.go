package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zombar/interviewlens/internal/analyzer"
	"github.com/zombar/interviewlens/internal/blob"
	"github.com/zombar/interviewlens/internal/database"
	"github.com/zombar/interviewlens/internal/models"
	"github.com/zombar/interviewlens/pkg/metrics"
)

// mockQueueClient implements the queue client interface for testing
type mockQueueClient struct {
	transcribeCalls []string
}

func (m *mockQueueClient) EnqueueTranscribeAudio(ctx context.Context, sessionID, audioRef string) (string, error) {
	m.transcribeCalls = append(m.transcribeCalls, sessionID)
	return "mock-task-id", nil
}

func (m *mockQueueClient) EnqueueAnalyzeTranscript(ctx context.Context, sessionID, transcript string) (string, error) {
	return "mock-task-id", nil
}

func (m *mockQueueClient) EnqueueSegmentTranscript(ctx context.Context, sessionID string) (string, error) {
	return "mock-task-id", nil
}

func setupTestHandler(t *testing.T) (*Handler, *mockQueueClient) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	blobs, err := blob.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	mockQueue := &mockQueueClient{}
	handler := &Handler{
		db:              db,
		engine:          analyzer.New(),
		blobs:           blobs,
		queueClient:     mockQueue,
		mux:             http.NewServeMux(),
		logger:          slog.Default(),
		businessMetrics: metrics.NewBusinessMetrics("interviewlens"),
	}
	handler.setupRoutes()

	return handler, mockQueue
}

func createTestSession(t *testing.T, handler *Handler) models.Session {
	t.Helper()

	body, _ := json.Marshal(map[string]interface{}{
		"title": "Candidate screening",
		"questions": []map[string]string{
			{"text": "How are you doing today"},
			{"text": "Any final thoughts"},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var session models.Session
	if err := json.NewDecoder(w.Body).Decode(&session); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return session
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body, _ := json.Marshal(analyzeRequest{Text: "I am so happy and grateful today!"})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var report models.AnalysisReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !report.Success {
		t.Error("Expected successful analysis")
	}
	if report.Sentiment.Label != models.SentimentPositive {
		t.Errorf("Expected POSITIVE sentiment, got %s", report.Sentiment.Label)
	}
}

func TestAnalyzeEndpointRejectsGet(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestSegmentEndpointFuzzy(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body, _ := json.Marshal(segmentRequest{
		Transcript: "How are you doing today? I am doing great thanks for asking. Any final thoughts? No that covers everything.",
		Questions: []models.Question{
			{ID: "q1", Text: "How are you doing today", Order: 0},
			{ID: "q2", Text: "Any final thoughts", Order: 1},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/segment", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Strategy string           `json:"strategy"`
		Segments []models.Segment `json:"segments"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Strategy != "fuzzy" {
		t.Errorf("Expected fuzzy strategy, got %s", response.Strategy)
	}
	if len(response.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(response.Segments))
	}
	if response.Segments[0].QuestionID != "q1" {
		t.Errorf("Expected first segment for q1, got %s", response.Segments[0].QuestionID)
	}
}

func TestSegmentEndpointEqualDivision(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body, _ := json.Marshal(segmentRequest{
		Transcript: "one two three four",
		Questions: []models.Question{
			{ID: "q1", Text: "First question", Order: 0},
			{ID: "q2", Text: "Second question", Order: 1},
		},
		Strategy: "equal_division",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/segment", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Strategy string           `json:"strategy"`
		Segments []models.Segment `json:"segments"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Strategy != "equal_division" {
		t.Errorf("Expected equal_division strategy, got %s", response.Strategy)
	}
	if len(response.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(response.Segments))
	}
	if response.Segments[0].Status != models.SegmentStatusCompleted {
		t.Errorf("Expected completed status, got %s", response.Segments[0].Status)
	}
}

func TestSegmentEndpointUnknownStrategy(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body, _ := json.Marshal(segmentRequest{Transcript: "text", Strategy: "oracle"})
	req := httptest.NewRequest(http.MethodPost, "/api/segment", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateSessionAssignsIDs(t *testing.T) {
	handler, _ := setupTestHandler(t)

	session := createTestSession(t, handler)

	if session.ID == "" {
		t.Error("Expected session ID to be assigned")
	}
	if len(session.Questions) != 2 {
		t.Fatalf("Expected 2 questions, got %d", len(session.Questions))
	}
	for i, q := range session.Questions {
		if q.ID == "" {
			t.Errorf("Question %d missing ID", i)
		}
		if q.Order != i {
			t.Errorf("Question %d has order %d", i, q.Order)
		}
	}
}

func TestCreateSessionRequiresTitle(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body, _ := json.Marshal(map[string]string{"title": ""})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	handler, _ := setupTestHandler(t)

	createTestSession(t, handler)
	createTestSession(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=10", nil)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Sessions []models.Session `json:"sessions"`
		Count    int              `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 2 {
		t.Errorf("Expected 2 sessions, got %d", response.Count)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nonexistent", nil)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	handler, _ := setupTestHandler(t)

	session := createTestSession(t, handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+session.ID, nil)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID, nil)
	w = httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestUploadAudioEnqueuesTranscription(t *testing.T) {
	handler, mockQueue := setupTestHandler(t)

	session := createTestSession(t, handler)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "interview.webm")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write([]byte("fake audio bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "queued" {
		t.Errorf("Expected queued status, got %s", response["status"])
	}
	if response["audio_ref"] == "" {
		t.Error("Expected audio_ref in response")
	}

	if len(mockQueue.transcribeCalls) != 1 || mockQueue.transcribeCalls[0] != session.ID {
		t.Errorf("Expected one transcription enqueue for %s, got %v", session.ID, mockQueue.transcribeCalls)
	}

	stored, err := handler.db.GetSession(session.ID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if stored.AudioRef != response["audio_ref"] {
		t.Errorf("Expected stored audio ref %s, got %s", response["audio_ref"], stored.AudioRef)
	}
}

func TestUploadAudioUnknownSession(t *testing.T) {
	handler, _ := setupTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("audio", "interview.webm")
	part.Write([]byte("fake audio bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/nonexistent/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCaptionStreamAppendsTranscript(t *testing.T) {
	handler, _ := setupTestHandler(t)

	session := createTestSession(t, handler)

	server := httptest.NewServer(handler.mux)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/captions?session_id=" + session.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}

	lines := []string{"How are you doing today?", "I am doing great thanks."}
	for _, line := range lines {
		if err := conn.WriteJSON(captionMessage{Text: line}); err != nil {
			t.Fatalf("Failed to send caption: %v", err)
		}
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	// The server flushes each line before reading the next, so after the
	// close handshake both lines are durable.
	deadline := time.Now().Add(2 * time.Second)
	want := strings.Join(lines, "\n")
	for {
		stored, err := handler.db.GetSession(session.ID)
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if stored.Transcript == want {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Transcript never reached expected value, got %q", stored.Transcript)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCaptionStreamRequiresSession(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/ws/captions", nil)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
