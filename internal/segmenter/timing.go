package segmenter

import "github.com/zombar/interviewlens/internal/models"

// AnnotateTimings fills segment start and end times from inline caption
// timestamps, when the transcript carries them. A question's segment
// starts at the timestamp of the sentence that uttered it and ends where
// the next question is uttered, or at the last timestamped sentence.
// Transcripts without timestamps are returned unchanged, as are segments
// whose question was never matched to a timed sentence.
func AnnotateTimings(transcript string, segments []models.Segment, questions []models.Question) []models.Segment {
	if len(segments) == 0 || len(questions) == 0 {
		return segments
	}

	sentences := SplitTimedSentences(transcript)

	starts := make(map[string]float64)
	ends := make(map[string]float64)
	current := ""
	clock := 0.0
	sawClock := false

	for _, s := range sentences {
		if s.Timed {
			clock = s.Seconds
			sawClock = true
		}
		if !sawClock {
			continue
		}

		q, ok := MatchQuestion(s.Text, questions)
		if !ok {
			continue
		}
		if _, seen := starts[q.ID]; seen {
			continue
		}

		if current != "" {
			ends[current] = clock
		}
		starts[q.ID] = clock
		current = q.ID
	}

	if !sawClock {
		return segments
	}
	if current != "" {
		ends[current] = clock
	}

	for i := range segments {
		start, ok := starts[segments[i].QuestionID]
		if !ok {
			continue
		}
		segments[i].StartTime = start
		segments[i].EndTime = ends[segments[i].QuestionID]
	}
	return segments
}
