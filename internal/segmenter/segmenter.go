// Package segmenter attributes spans of an interview transcript to the
// questions that elicited them. Two interchangeable strategies are
// provided: equal division (content-agnostic fallback) and fuzzy phrase
// location (content-aware). Both are pure functions of their inputs.
package segmenter

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/zombar/interviewlens/internal/models"
)

// secondsPerWord is the assumed uniform speaking rate used to estimate
// segment timing in the equal-division strategy.
const secondsPerWord = 0.5

// similarityThreshold accepts a word window as an utterance of a question.
// Empirically chosen in the source application; part of the observable
// contract, do not tune.
const similarityThreshold = 0.7

// windowSlack extends the match window beyond the question's word count
// to tolerate disfluencies.
const windowSlack = 2

// leadingScanWords is how far into the transcript the leading-content
// heuristic looks for a question opening.
const leadingScanWords = 15

// synonymGroups lists words treated as interchangeable during fuzzy
// matching. Part of the observable contract, do not tune.
var synonymGroups = [][]string{
	{"is", "was", "are", "were", "be"},
	{"your", "you", "yours"},
	{"what", "which", "who", "how"},
	{"the", "a", "an"},
	{"doing", "do", "did", "done"},
	{"name", "names"},
}

// synonymIndex maps each word to its group for O(1) similarity checks.
var synonymIndex = func() map[string]int {
	index := make(map[string]int)
	for i, group := range synonymGroups {
		for _, word := range group {
			index[word] = i
		}
	}
	return index
}()

// SegmentByEqualDivision splits the transcript's words evenly across the
// questions in order. It makes no attempt to locate where a question was
// actually asked; it is the robust fallback for continuous-speech
// transcripts. Returns exactly len(questions) segments for non-empty
// input, and nil when either input is empty.
func SegmentByEqualDivision(text string, questions []models.Question) (segments []models.Segment) {
	defer recoverToEmpty("equal_division", &segments)

	words := strings.Fields(text)
	if len(words) == 0 || len(questions) == 0 {
		return []models.Segment{}
	}

	perQuestion := int(math.Ceil(float64(len(words)) / float64(len(questions))))

	segments = make([]models.Segment, 0, len(questions))
	for i, question := range questions {
		start := i * perQuestion
		end := start + perQuestion
		if start > len(words) {
			start = len(words)
		}
		if end > len(words) {
			end = len(words)
		}

		segments = append(segments, models.Segment{
			QuestionID:        question.ID,
			QuestionText:      question.Text,
			StartTime:         float64(start) * secondsPerWord,
			EndTime:           float64(end) * secondsPerWord,
			TranscriptionText: strings.Join(words[start:end], " "),
			Status:            models.SegmentStatusCompleted,
		})
	}
	return segments
}

// questionMatch records where a question's utterance was located in the
// transcript word sequence.
type questionMatch struct {
	question  models.Question
	startWord int
	endWord   int // exclusive
}

// SegmentByFuzzyMatch locates each question's utterance in the transcript
// and attributes the text between consecutive located questions to the
// preceding one. Questions that cannot be located produce no segment;
// when none can be located, the entire transcript becomes one "general
// discussion" segment. Fuzzy segments carry no timing and report status
// "processing" pending validation.
func SegmentByFuzzyMatch(text string, questions []models.Question) (segments []models.Segment) {
	defer recoverToEmpty("fuzzy_match", &segments)

	words := strings.Fields(text)
	if len(words) == 0 {
		return []models.Segment{}
	}

	matches := locateQuestions(words, questions)

	if len(matches) == 0 {
		if len(questions) == 0 {
			return []models.Segment{}
		}
		return []models.Segment{{
			QuestionID:        "general",
			QuestionText:      "General Discussion",
			TranscriptionText: trimAnswer(strings.Join(words, " ")),
			Status:            models.SegmentStatusProcessing,
		}}
	}

	segments = []models.Segment{}

	// Content spoken before the first located question is attributed to
	// the first question unless the transcript opens with one.
	first := matches[0]
	if first.startWord > 0 && !opensWithQuestion(words, questions) {
		leading := trimAnswer(strings.Join(words[:first.startWord], " "))
		if leading != "" {
			segments = append(segments, models.Segment{
				QuestionID:        questions[0].ID,
				QuestionText:      questions[0].Text,
				TranscriptionText: leading,
				Status:            models.SegmentStatusProcessing,
			})
		}
	}

	for i, match := range matches {
		answerEnd := len(words)
		if i+1 < len(matches) {
			answerEnd = matches[i+1].startWord
		}
		answer := trimAnswer(strings.Join(words[match.endWord:answerEnd], " "))
		segments = append(segments, models.Segment{
			QuestionID:        match.question.ID,
			QuestionText:      match.question.Text,
			TranscriptionText: answer,
			Status:            models.SegmentStatusProcessing,
		})
	}

	return segments
}

// locateQuestions scans the transcript once per question, in question
// order, advancing past each match so located spans never overlap. The
// collected matches are ordered by position and deduplicated to at most
// one (left-most) location per question.
func locateQuestions(words []string, questions []models.Question) []questionMatch {
	var matches []questionMatch
	scanFrom := 0

	for _, question := range questions {
		qwords := strings.Fields(strings.ToLower(question.Text))
		if len(qwords) == 0 {
			continue
		}

		match, ok := findSpan(words, qwords, scanFrom)
		if !ok {
			continue
		}
		match.question = question
		matches = append(matches, match)
		scanFrom = match.endWord
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].startWord < matches[j].startWord
	})

	located := matches[:0]
	seen := make(map[string]bool)
	for _, match := range matches {
		if seen[match.question.ID] {
			continue
		}
		seen[match.question.ID] = true
		located = append(located, match)
	}
	return located
}

// findSpan looks for the left-most window of transcript words, between
// len(qwords) and len(qwords)+windowSlack wide, that matches the question
// exactly or with similarity at or above the threshold.
func findSpan(words, qwords []string, from int) (questionMatch, bool) {
	target := strings.Join(qwords, " ")

	for start := from; start < len(words); start++ {
		for size := len(qwords); size <= len(qwords)+windowSlack; size++ {
			end := start + size
			if end > len(words) {
				break
			}
			span := words[start:end]

			if strings.ToLower(strings.Join(span, " ")) == target {
				return questionMatch{startWord: start, endWord: end}, true
			}
			if spanSimilarity(qwords, span) >= similarityThreshold {
				return questionMatch{startWord: start, endWord: end}, true
			}
		}
	}
	return questionMatch{}, false
}

// spanSimilarity scores a candidate span against the question two ways and
// keeps the larger: the fraction of question words with a synonym-or-equal
// counterpart anywhere in the span, and the fraction appearing verbatim.
func spanSimilarity(qwords, span []string) float64 {
	spanWords := make([]string, len(span))
	for i, w := range span {
		spanWords[i] = normalizeWord(w)
	}

	similar := 0
	verbatim := 0
	for _, qword := range qwords {
		q := normalizeWord(qword)
		for _, s := range spanWords {
			if wordsSimilar(q, s) {
				similar++
				break
			}
		}
		for _, s := range spanWords {
			if q == s {
				verbatim++
				break
			}
		}
	}

	n := float64(len(qwords))
	return math.Max(float64(similar)/n, float64(verbatim)/n)
}

// wordsSimilar reports identity or shared membership in a synonym group.
func wordsSimilar(a, b string) bool {
	if a == b {
		return true
	}
	ga, okA := synonymIndex[a]
	gb, okB := synonymIndex[b]
	return okA && okB && ga == gb
}

// opensWithQuestion checks whether the first few transcript words contain
// a sufficiently-overlapping prefix of any question: at least half of a
// question's words appearing within the leading scan window.
func opensWithQuestion(words []string, questions []models.Question) bool {
	limit := leadingScanWords
	if limit > len(words) {
		limit = len(words)
	}

	prefix := make(map[string]bool, limit)
	for _, w := range words[:limit] {
		prefix[normalizeWord(w)] = true
	}

	for _, question := range questions {
		qwords := strings.Fields(strings.ToLower(question.Text))
		if len(qwords) == 0 {
			continue
		}
		hits := 0
		for _, qword := range qwords {
			if prefix[normalizeWord(qword)] {
				hits++
			}
		}
		if float64(hits)/float64(len(qwords)) >= 0.5 {
			return true
		}
	}
	return false
}

// normalizeWord lower-cases and strips surrounding punctuation for word
// comparisons during matching.
func normalizeWord(w string) string {
	return strings.Trim(strings.ToLower(w), `.,!?;:"'()[]{}`)
}

// trimAnswer strips leading/trailing punctuation and whitespace from an
// extracted answer slice.
func trimAnswer(s string) string {
	return strings.Trim(s, " \t\n.,!?;:-")
}

// recoverToEmpty converts a panic inside a strategy into an empty segment
// list; callers treat no segments as segmentation unavailable.
func recoverToEmpty(strategy string, segments *[]models.Segment) {
	if r := recover(); r != nil {
		slog.Warn("segmentation strategy failed", "strategy", strategy, "panic", r)
		*segments = []models.Segment{}
	}
}
