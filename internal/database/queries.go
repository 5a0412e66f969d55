package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zombar/interviewlens/internal/models"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// SaveSession inserts a new session record.
func (db *DB) SaveSession(session *models.Session) error {
	questionsJSON, err := json.Marshal(session.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	reportJSON, segmentsJSON, err := marshalArtifacts(session)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(`
		INSERT INTO sessions (id, title, questions, transcript, audio_ref, report, segments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.Title, questionsJSON, session.Transcript, session.AudioRef,
		reportJSON, segmentsJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(id string) (*models.Session, error) {
	row := db.conn.QueryRow(`
		SELECT id, title, questions, transcript, audio_ref, report, segments, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions retrieves sessions newest first, with pagination.
func (db *DB) ListSessions(limit, offset int) ([]*models.Session, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, questions, transcript, audio_ref, report, segments, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// DeleteSession deletes a session by ID
func (db *DB) DeleteSession(id string) error {
	result, err := db.conn.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// UpdateSessionTranscript replaces the session's transcript text.
func (db *DB) UpdateSessionTranscript(id, transcript string) error {
	return db.updateColumn(id, "transcript", transcript)
}

// UpdateSessionAudioRef records where the session's uploaded audio lives.
func (db *DB) UpdateSessionAudioRef(id, audioRef string) error {
	return db.updateColumn(id, "audio_ref", audioRef)
}

// UpdateSessionReport stores the analysis report for a session.
func (db *DB) UpdateSessionReport(id string, report *models.AnalysisReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return db.updateColumn(id, "report", string(reportJSON))
}

// UpdateSessionSegments stores the segmentation result for a session.
func (db *DB) UpdateSessionSegments(id string, segments []models.Segment) error {
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to marshal segments: %w", err)
	}
	return db.updateColumn(id, "segments", string(segmentsJSON))
}

func (db *DB) updateColumn(id, column, value string) error {
	result, err := db.conn.Exec(
		"UPDATE sessions SET "+column+" = ?, updated_at = ? WHERE id = ?",
		value, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func marshalArtifacts(session *models.Session) (report, segments sql.NullString, err error) {
	if session.Report != nil {
		data, merr := json.Marshal(session.Report)
		if merr != nil {
			return report, segments, fmt.Errorf("failed to marshal report: %w", merr)
		}
		report = sql.NullString{String: string(data), Valid: true}
	}
	if session.Segments != nil {
		data, merr := json.Marshal(session.Segments)
		if merr != nil {
			return report, segments, fmt.Errorf("failed to marshal segments: %w", merr)
		}
		segments = sql.NullString{String: string(data), Valid: true}
	}
	return report, segments, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		session       models.Session
		questionsJSON string
		reportJSON    sql.NullString
		segmentsJSON  sql.NullString
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&session.ID, &session.Title, &questionsJSON, &session.Transcript,
		&session.AudioRef, &reportJSON, &segmentsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(questionsJSON), &session.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	if reportJSON.Valid && reportJSON.String != "" {
		session.Report = &models.AnalysisReport{}
		if err := json.Unmarshal([]byte(reportJSON.String), session.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
	}
	if segmentsJSON.Valid && segmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(segmentsJSON.String), &session.Segments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal segments: %w", err)
		}
	}

	session.CreatedAt = createdAt
	session.UpdatedAt = updatedAt
	return &session, nil
}
