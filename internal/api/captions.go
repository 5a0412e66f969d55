package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zombar/interviewlens/internal/database"
)

// captionWriteWait bounds how long a control frame write may block.
const captionWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is handled at the HTTP layer; the recording UI may be served
	// from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// captionMessage is one live caption line sent by the recording client.
type captionMessage struct {
	Text string `json:"text"`
	// Seconds since the start of the recording, when the client knows it.
	Offset float64 `json:"offset,omitempty"`
}

// handleCaptions accepts live caption lines over a websocket and appends
// them to the session transcript as they arrive. The accumulated text is
// flushed to the database on every line so a dropped connection loses at
// most the line in flight.
func (h *Handler) handleCaptions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, "session_id query parameter required", http.StatusBadRequest)
		return
	}

	session, err := h.db.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			respondError(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get session", "session_id", sessionID, "error", err)
		respondError(w, "Failed to get session", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("caption stream opened", "session_id", sessionID)

	var transcript strings.Builder
	transcript.WriteString(session.Transcript)
	lines := 0

	for {
		var msg captionMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("caption stream error", "session_id", sessionID, "error", err)
			}
			break
		}

		line := strings.TrimSpace(msg.Text)
		if line == "" {
			continue
		}

		if transcript.Len() > 0 {
			transcript.WriteString("\n")
		}
		transcript.WriteString(line)
		lines++
		h.businessMetrics.CaptionLinesTotal.Inc()

		if err := h.db.UpdateSessionTranscript(sessionID, transcript.String()); err != nil {
			h.logger.Error("failed to save caption line", "session_id", sessionID, "error", err)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "save failed"),
				time.Now().Add(captionWriteWait))
			break
		}
	}

	h.logger.Info("caption stream closed",
		"session_id", sessionID,
		"lines", lines,
	)
}
