package segmenter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zombar/interviewlens/internal/models"
)

// TimedSentence is one sentence of a transcript together with the clock
// time of the line it came from, when the line carried a bracketed
// timestamp annotation.
type TimedSentence struct {
	Text    string
	Seconds float64 // seconds since midnight
	Timed   bool
}

var (
	// timestampPattern recognizes leading annotations like "[2:15:38 PM]".
	// The seconds field is optional to tolerate "[2:15 PM]" style lines.
	timestampPattern = regexp.MustCompile(`^\s*\[(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])\]`)

	// bracketPattern strips any remaining bracketed annotations (speaker
	// labels, inaudible markers) from sentence text.
	bracketPattern = regexp.MustCompile(`\[[^\]]*\]`)

	sentenceBoundary = regexp.MustCompile(`[.!?]+`)

	clauseBoundary = regexp.MustCompile(`[,!?]+`)
)

// SplitTimedSentences breaks a transcript into sentences, associating each
// with the timestamp of the line it appeared on. Lines without a timestamp
// yield untimed sentences. Bracketed annotations never appear in the
// returned text.
func SplitTimedSentences(transcript string) []TimedSentence {
	var out []TimedSentence

	for _, line := range strings.Split(transcript, "\n") {
		seconds, timed, rest := parseLineTimestamp(line)

		clean := strings.Join(strings.Fields(bracketPattern.ReplaceAllString(rest, " ")), " ")
		if clean == "" {
			continue
		}

		for _, part := range sentenceBoundary.Split(clean, -1) {
			sentence := strings.TrimSpace(part)
			if sentence == "" {
				continue
			}
			out = append(out, TimedSentence{Text: sentence, Seconds: seconds, Timed: timed})
		}
	}
	return out
}

// parseLineTimestamp extracts a leading clock annotation from a line and
// returns the remainder. The clock is 12-hour; midnight ("12 AM") maps to
// zero seconds.
func parseLineTimestamp(line string) (seconds float64, ok bool, rest string) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false, line
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if hour < 1 || hour > 12 || minute > 59 || sec > 59 {
		return 0, false, line
	}

	hour = hour % 12
	if strings.EqualFold(m[4], "pm") {
		hour += 12
	}

	seconds = float64(hour*3600 + minute*60 + sec)
	return seconds, true, line[len(m[0]):]
}

// MatchQuestion reports whether a single sentence is an utterance of one
// of the given questions, returning the first question (in order) that
// matches. A sentence matches when it contains the whole question, any
// clause of the question, or at least 60% of the question's substantive
// words (longer than three characters).
func MatchQuestion(sentence string, questions []models.Question) (models.Question, bool) {
	lowerSentence := strings.ToLower(sentence)

	for _, question := range questions {
		if matchesQuestion(lowerSentence, question.Text) {
			return question, true
		}
	}
	return models.Question{}, false
}

func matchesQuestion(lowerSentence, questionText string) bool {
	lowerQuestion := strings.ToLower(strings.TrimSpace(questionText))
	if lowerQuestion == "" {
		return false
	}
	lowerQuestion = strings.Trim(lowerQuestion, ".!?")

	if strings.Contains(lowerSentence, lowerQuestion) {
		return true
	}

	for _, clause := range clauseBoundary.Split(lowerQuestion, -1) {
		clause = strings.TrimSpace(clause)
		if clause != "" && clause != lowerQuestion && strings.Contains(lowerSentence, clause) {
			return true
		}
	}

	substantive := 0
	present := 0
	for _, word := range strings.Fields(lowerQuestion) {
		word = normalizeWord(word)
		if len(word) <= 3 {
			continue
		}
		substantive++
		if strings.Contains(lowerSentence, word) {
			present++
		}
	}
	return substantive > 0 && float64(present)/float64(substantive) >= 0.6
}
