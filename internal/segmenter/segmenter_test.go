package segmenter

import (
	"strings"
	"testing"

	"github.com/zombar/interviewlens/internal/models"
)

func questionList(texts ...string) []models.Question {
	qs := make([]models.Question, len(texts))
	for i, t := range texts {
		qs[i] = models.Question{ID: string(rune('a' + i)), Text: t, Order: i}
	}
	return qs
}

func TestSegmentByEqualDivision(t *testing.T) {
	questions := questionList("First question", "Second question")
	segments := SegmentByEqualDivision("one two three four", questions)

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].TranscriptionText != "one two" {
		t.Errorf("first segment text = %q, want %q", segments[0].TranscriptionText, "one two")
	}
	if segments[1].TranscriptionText != "three four" {
		t.Errorf("second segment text = %q, want %q", segments[1].TranscriptionText, "three four")
	}
	if segments[0].StartTime != 0 || segments[0].EndTime != 1.0 {
		t.Errorf("first segment timing = [%v, %v], want [0, 1]", segments[0].StartTime, segments[0].EndTime)
	}
	if segments[1].StartTime != 1.0 || segments[1].EndTime != 2.0 {
		t.Errorf("second segment timing = [%v, %v], want [1, 2]", segments[1].StartTime, segments[1].EndTime)
	}
	for _, seg := range segments {
		if seg.Status != models.SegmentStatusCompleted {
			t.Errorf("segment status = %q, want %q", seg.Status, models.SegmentStatusCompleted)
		}
	}
}

func TestSegmentByEqualDivisionUnevenSplit(t *testing.T) {
	questions := questionList("Q1", "Q2", "Q3")
	segments := SegmentByEqualDivision("alpha beta gamma delta epsilon", questions)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	// ceil(5/3) = 2 words per question; the last segment gets the remainder.
	if segments[0].TranscriptionText != "alpha beta" {
		t.Errorf("first segment = %q", segments[0].TranscriptionText)
	}
	if segments[1].TranscriptionText != "gamma delta" {
		t.Errorf("second segment = %q", segments[1].TranscriptionText)
	}
	if segments[2].TranscriptionText != "epsilon" {
		t.Errorf("third segment = %q", segments[2].TranscriptionText)
	}
}

func TestSegmentByEqualDivisionMoreQuestionsThanWords(t *testing.T) {
	questions := questionList("Q1", "Q2", "Q3")
	segments := SegmentByEqualDivision("one two", questions)

	if len(segments) != 3 {
		t.Fatalf("expected one segment per question, got %d", len(segments))
	}
	if segments[2].TranscriptionText != "" {
		t.Errorf("overflow segment should be empty, got %q", segments[2].TranscriptionText)
	}
}

func TestSegmentByEqualDivisionEmptyInputs(t *testing.T) {
	if got := SegmentByEqualDivision("", questionList("Q1")); len(got) != 0 {
		t.Errorf("empty transcript: expected no segments, got %d", len(got))
	}
	if got := SegmentByEqualDivision("some words here", nil); len(got) != 0 {
		t.Errorf("no questions: expected no segments, got %d", len(got))
	}
}

func TestSegmentByFuzzyMatchSingleQuestion(t *testing.T) {
	questions := questionList("How are you doing today")
	segments := SegmentByFuzzyMatch("How are you doing today? I am doing great thanks.", questions)

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d: %+v", len(segments), segments)
	}
	if segments[0].QuestionID != "a" {
		t.Errorf("segment question = %q, want %q", segments[0].QuestionID, "a")
	}
	if segments[0].TranscriptionText != "I am doing great thanks" {
		t.Errorf("answer = %q, want %q", segments[0].TranscriptionText, "I am doing great thanks")
	}
	if segments[0].Status != models.SegmentStatusProcessing {
		t.Errorf("status = %q, want %q", segments[0].Status, models.SegmentStatusProcessing)
	}
	if segments[0].StartTime != 0 || segments[0].EndTime != 0 {
		t.Errorf("fuzzy segments carry no timing, got [%v, %v]", segments[0].StartTime, segments[0].EndTime)
	}
}

func TestSegmentByFuzzyMatchTwoQuestions(t *testing.T) {
	questions := questionList("How are you doing today", "Any final thoughts")
	transcript := "How are you doing today? I am doing great thanks for asking. " +
		"Any final thoughts? No that covers everything."

	segments := SegmentByFuzzyMatch(transcript, questions)

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segments), segments)
	}
	if segments[0].QuestionID != "a" || segments[1].QuestionID != "b" {
		t.Errorf("segments attributed to %q, %q; want a, b", segments[0].QuestionID, segments[1].QuestionID)
	}
	if !strings.HasPrefix(segments[0].TranscriptionText, "I am doing great thanks") {
		t.Errorf("first answer = %q", segments[0].TranscriptionText)
	}
	if segments[1].TranscriptionText != "No that covers everything" {
		t.Errorf("second answer = %q, want %q", segments[1].TranscriptionText, "No that covers everything")
	}
}

func TestSegmentByFuzzyMatchSynonymVariation(t *testing.T) {
	// "What was your name" should locate "What is your name" through the
	// is/was synonym group.
	questions := questionList("What is your name")
	transcript := "What was your name again? Call me Sam."

	segments := SegmentByFuzzyMatch(transcript, questions)

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d: %+v", len(segments), segments)
	}
	if segments[0].QuestionID != "a" {
		t.Errorf("segment question = %q, want %q", segments[0].QuestionID, "a")
	}
	if !strings.Contains(segments[0].TranscriptionText, "Call me Sam") {
		t.Errorf("answer = %q, want it to contain %q", segments[0].TranscriptionText, "Call me Sam")
	}
}

func TestSegmentByFuzzyMatchGeneralDiscussionFallback(t *testing.T) {
	questions := questionList("Describe your ideal workplace culture")
	transcript := "The weather has been lovely and the coffee here tastes wonderful."

	segments := SegmentByFuzzyMatch(transcript, questions)

	if len(segments) != 1 {
		t.Fatalf("expected single fallback segment, got %d", len(segments))
	}
	if segments[0].QuestionID != "general" {
		t.Errorf("fallback question id = %q, want %q", segments[0].QuestionID, "general")
	}
	if segments[0].QuestionText != "General Discussion" {
		t.Errorf("fallback question text = %q", segments[0].QuestionText)
	}
	if segments[0].Status != models.SegmentStatusProcessing {
		t.Errorf("fallback status = %q", segments[0].Status)
	}
}

func TestSegmentByFuzzyMatchLeadingContent(t *testing.T) {
	questions := questionList("State your name")
	transcript := "The interview panel gathered quietly inside the large conference room while " +
		"several nervous candidates waited patiently outside near reception. State your name? Alex."

	segments := SegmentByFuzzyMatch(transcript, questions)

	if len(segments) != 2 {
		t.Fatalf("expected leading segment plus located segment, got %d: %+v", len(segments), segments)
	}
	if !strings.HasPrefix(segments[0].TranscriptionText, "The interview panel") {
		t.Errorf("leading segment = %q", segments[0].TranscriptionText)
	}
	if segments[0].QuestionID != "a" {
		t.Errorf("leading segment attributed to %q, want first question", segments[0].QuestionID)
	}
	if segments[1].TranscriptionText != "Alex" {
		t.Errorf("located answer = %q, want %q", segments[1].TranscriptionText, "Alex")
	}
}

func TestSegmentByFuzzyMatchNoLeadingSegmentWhenOpeningWithQuestion(t *testing.T) {
	// The question's words all appear inside the opening scan window, so no
	// leading segment is synthesized for the short preamble.
	questions := questionList("State your name")
	transcript := "Okay so let us begin state your name? Alex."

	segments := SegmentByFuzzyMatch(transcript, questions)

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d: %+v", len(segments), segments)
	}
	if segments[0].TranscriptionText != "Alex" {
		t.Errorf("answer = %q, want %q", segments[0].TranscriptionText, "Alex")
	}
}

func TestSegmentByFuzzyMatchOneSegmentPerQuestion(t *testing.T) {
	// The first question's text recurs later in the transcript; only the
	// left-most location produces a segment.
	questions := questionList("What is your name")
	transcript := "What is your name? Bob. What is your name? Still Bob."

	segments := SegmentByFuzzyMatch(transcript, questions)

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d: %+v", len(segments), segments)
	}

	seen := make(map[string]bool)
	for _, seg := range segments {
		if seen[seg.QuestionID] {
			t.Errorf("question %q produced more than one segment", seg.QuestionID)
		}
		seen[seg.QuestionID] = true
	}
}

func TestSegmentByFuzzyMatchEmptyInputs(t *testing.T) {
	if got := SegmentByFuzzyMatch("", questionList("Q1")); len(got) != 0 {
		t.Errorf("empty transcript: expected no segments, got %d", len(got))
	}
	if got := SegmentByFuzzyMatch("just some words", nil); len(got) != 0 {
		t.Errorf("no questions: expected no segments, got %d", len(got))
	}
}
