package models

import "time"

// Sentiment labels produced by the analyzer.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Segment status values.
const (
	SegmentStatusCompleted  = "completed"
	SegmentStatusProcessing = "processing"
)

// Session represents one recorded interview with its questions,
// transcript, and derived artifacts.
type Session struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Questions  []Question      `json:"questions"`
	Transcript string          `json:"transcript"`
	AudioRef   string          `json:"audio_ref,omitempty"` // blob store locator for uploaded audio
	Report     *AnalysisReport `json:"report,omitempty"`
	Segments   []Segment       `json:"segments,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Question is one interview question; Order drives segmentation.
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// AnalysisReport contains all signals derived from a transcript.
type AnalysisReport struct {
	Sentiment      Sentiment         `json:"sentiment"`
	Entities       []Entity          `json:"entities"`
	POSCounts      map[string]int    `json:"pos_counts"`
	POSPercentages map[string]string `json:"pos_percentages"`
	Topics         Topics            `json:"topics"`
	FlaggedWords   []FlaggedWord     `json:"flagged_words"`
	Stats          TranscriptStats   `json:"stats"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
}

// Sentiment is the document-level polarity with a confidence in [0,1].
type Sentiment struct {
	Label      string  `json:"label"` // POSITIVE, NEGATIVE, NEUTRAL
	Confidence float64 `json:"confidence"`
}

// Entity is one pattern-matched named entity.
type Entity struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"` // PERSON, ORGANIZATION, LOCATION, DATE, TIME, EMAIL, PHONE
	Confidence float64 `json:"confidence"`
}

// Topics holds the topic classification result. Scores sum to 1 when any
// keyword matched, and are uniform across the taxonomy otherwise.
type Topics struct {
	Primary string             `json:"primary"`
	Scores  map[string]float64 `json:"scores"`
}

// FlaggedWord is one vocabulary hit from the flagged-word scan.
type FlaggedWord struct {
	Word      string `json:"word"`
	Category  string `json:"category"` // profanity, sensitive, urgency, medical, positive, repetitive
	Frequency int    `json:"frequency"`
	Severity  string `json:"severity"` // high, medium, low
}

// TranscriptStats are basic counts over the normalized transcript.
type TranscriptStats struct {
	Words     int `json:"words"`
	Chars     int `json:"chars"`
	Sentences int `json:"sentences"`
}

// Segment attributes a transcript span to one interview question.
// Times are best-effort estimates in seconds.
type Segment struct {
	QuestionID        string  `json:"question_id"`
	QuestionText      string  `json:"question_text"`
	StartTime         float64 `json:"start_time"`
	EndTime           float64 `json:"end_time"`
	TranscriptionText string  `json:"transcription_text"`
	Status            string  `json:"status"`
}
