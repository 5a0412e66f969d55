package analyzer

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zombar/interviewlens/internal/models"
)

// SentimentScorer produces a signed polarity score for a text, negative
// for negative sentiment. Implementations must be safe for concurrent use
// after initialization.
type SentimentScorer interface {
	Score(text string) (float64, error)
}

// Engine derives linguistic signals from transcript text. It is stateless
// per call; the scorer and tagger resources are initialized once and the
// engine may be shared across goroutines.
type Engine struct {
	scorer SentimentScorer
	tagger Tagger

	initOnce sync.Once
	initErr  error
}

// New creates an Engine with the default lexicon scorer and rule tagger.
func New() *Engine {
	return &Engine{
		scorer: NewLexiconScorer(),
		tagger: NewRuleTagger(),
	}
}

// NewWithBackends creates an Engine with custom scorer and tagger
// implementations. Nil arguments fall back to the defaults.
func NewWithBackends(scorer SentimentScorer, tagger Tagger) *Engine {
	e := New()
	if scorer != nil {
		e.scorer = scorer
	}
	if tagger != nil {
		e.tagger = tagger
	}
	return e
}

// init prepares the scorer/tagger resources. Idempotent; only the first
// call does work.
func (e *Engine) init() error {
	e.initOnce.Do(func() {
		if e.scorer == nil || e.tagger == nil {
			e.initErr = fmt.Errorf("analyzer: no scorer or tagger configured")
		}
	})
	return e.initErr
}

// Analyze runs the full pipeline over text and always returns a report.
// Each stage is independently fault-tolerant: a failing stage contributes
// its default value and the remaining stages still run. Success is false
// only when the pipeline as a whole cannot run.
func (e *Engine) Analyze(text string) models.AnalysisReport {
	report := models.AnalysisReport{
		Sentiment:      models.Sentiment{Label: models.SentimentNeutral, Confidence: 0.5},
		Entities:       []models.Entity{},
		POSCounts:      map[string]int{},
		POSPercentages: map[string]string{},
		Topics:         defaultTopics(),
		FlaggedWords:   []models.FlaggedWord{},
	}

	if err := e.init(); err != nil {
		report.Error = err.Error()
		return report
	}

	normalized := text
	runStage("normalize", func() {
		normalized = normalizeText(text)
	})

	runStage("sentiment", func() {
		report.Sentiment = e.scoreSentiment(normalized)
	})

	runStage("entities", func() {
		report.Entities = extractEntities(normalized)
	})

	runStage("pos", func() {
		report.POSCounts, report.POSPercentages = e.tagDistribution(normalized)
	})

	runStage("topics", func() {
		report.Topics = classifyTopics(normalized)
	})

	runStage("flagged_words", func() {
		report.FlaggedWords = detectFlaggedWords(normalized)
	})

	runStage("stats", func() {
		report.Stats = computeStats(normalized)
	})

	report.Success = true
	return report
}

// runStage executes one pipeline stage, converting a panic into a logged
// skip so the remaining stages still run with defaults in place.
func runStage(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("analysis stage failed, using default", "stage", name, "panic", r)
		}
	}()
	fn()
}

// normalizeText expands contractions and trims surrounding whitespace.
func normalizeText(text string) string {
	out := text
	for _, pair := range contractionPairs {
		out = strings.ReplaceAll(out, pair.from, pair.to)
		// Sentence-initial contractions are capitalized.
		out = strings.ReplaceAll(out, capitalize(pair.from), capitalize(pair.to))
	}
	return strings.TrimSpace(out)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// scoreSentiment maps the scorer's signed score onto a label and
// confidence. Confidence grows with score magnitude, capped at 0.9.
func (e *Engine) scoreSentiment(text string) models.Sentiment {
	score, err := e.scorer.Score(text)
	if err != nil {
		return models.Sentiment{Label: models.SentimentNeutral, Confidence: 0.5}
	}

	switch {
	case score > 0.1:
		return models.Sentiment{Label: models.SentimentPositive, Confidence: sentimentConfidence(score)}
	case score < -0.1:
		return models.Sentiment{Label: models.SentimentNegative, Confidence: sentimentConfidence(score)}
	default:
		return models.Sentiment{Label: models.SentimentNeutral, Confidence: 0.5}
	}
}

func sentimentConfidence(score float64) float64 {
	return math.Min(0.5+math.Abs(score)*0.5, 0.9)
}

// LexiconScorer scores polarity from fixed positive/negative word lists.
type LexiconScorer struct {
	positive map[string]bool
	negative map[string]bool
}

// NewLexiconScorer builds the default lexicon-based sentiment scorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		positive: getPositiveWords(),
		negative: getNegativeWords(),
	}
}

// Score returns a signed score in [-1,1]: the positive/negative hit
// balance relative to text length, amplified and clamped.
func (s *LexiconScorer) Score(text string) (float64, error) {
	words := extractWords(text)
	if len(words) == 0 {
		return 0, nil
	}

	positiveCount := 0
	negativeCount := 0
	for _, word := range words {
		if s.positive[word] {
			positiveCount++
		}
		if s.negative[word] {
			negativeCount++
		}
	}

	if positiveCount+negativeCount == 0 {
		return 0, nil
	}

	score := (float64(positiveCount) - float64(negativeCount)) / float64(len(words))
	return math.Max(-1.0, math.Min(1.0, score*10)), nil
}

// tagDistribution runs the tagger and derives counts plus percentage
// strings. Percentages are taken against the tagged total; when the tagger
// reports nothing for a non-empty text, the word-shape fallback supplies
// the counts, and a still-empty result falls back to the raw token count
// as the denominator.
func (e *Engine) tagDistribution(text string) (map[string]int, map[string]string) {
	tokens := strings.Fields(text)

	counts, err := e.tagger.Tag(text)
	if err != nil {
		counts = nil
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	if total == 0 && len(tokens) > 0 {
		counts = shapeFallbackCounts(text)
		for _, c := range counts {
			total += c
		}
	}

	if counts == nil {
		counts = map[string]int{}
	}

	denominator := total
	if denominator == 0 {
		denominator = len(tokens)
	}

	percentages := make(map[string]string, len(counts))
	if denominator > 0 {
		for tag, count := range counts {
			percentages[tag] = fmt.Sprintf("%.1f%%", float64(count)/float64(denominator)*100)
		}
	}

	return counts, percentages
}

// classifyTopics counts whole-word keyword hits per topic and normalizes.
// The first topic to reach the maximum during the scan wins primary.
func classifyTopics(text string) models.Topics {
	lower := strings.ToLower(text)

	scores := make(map[string]float64, len(topicKeywords))
	primary := ""
	best := 0.0
	total := 0.0

	for _, topic := range topicKeywords {
		count := 0.0
		for _, keyword := range topic.keywords {
			count += float64(len(topicPattern(keyword).FindAllString(lower, -1)))
		}
		scores[topic.name] = count
		total += count
		if count > best {
			best = count
			primary = topic.name
		}
	}

	if total == 0 {
		return defaultTopics()
	}

	for name, score := range scores {
		scores[name] = score / total
	}
	return models.Topics{Primary: primary, Scores: scores}
}

// topicPatterns holds one compiled whole-word pattern per taxonomy
// keyword, built at package load so Analyze never compiles regexes.
var topicPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, topic := range topicKeywords {
		for _, keyword := range topic.keywords {
			patterns[keyword] = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
		}
	}
	return patterns
}()

func topicPattern(keyword string) *regexp.Regexp {
	return topicPatterns[keyword]
}

// defaultTopics is the result for empty or unclassifiable text: topic
// "general" with a uniform distribution over the taxonomy.
func defaultTopics() models.Topics {
	scores := make(map[string]float64, len(topicKeywords))
	uniform := 1.0 / float64(len(topicKeywords))
	for _, topic := range topicKeywords {
		scores[topic.name] = uniform
	}
	return models.Topics{Primary: "general", Scores: scores}
}

// detectFlaggedWords scans the transcript's word frequencies against the
// flagged categories, synthesizes the repetitive category, and sorts by
// severity rank. The result never contains duplicate words.
func detectFlaggedWords(text string) []models.FlaggedWord {
	freq := wordFrequencies(text)
	if len(freq) == 0 {
		return []models.FlaggedWord{}
	}

	flagged := []models.FlaggedWord{}
	seen := make(map[string]bool)

	for _, category := range flaggedCategories {
		for _, word := range category.words {
			count, ok := freq[word]
			if !ok || seen[word] {
				continue
			}
			seen[word] = true
			flagged = append(flagged, models.FlaggedWord{
				Word:      word,
				Category:  category.name,
				Frequency: count,
				Severity:  category.severity,
			})
		}
	}

	// Heavily repeated words are flagged even outside the static lists.
	totalWords := 0
	for _, count := range freq {
		totalWords += count
	}
	for _, wc := range sortedFreqSlice(freq) {
		if wc.count > 3 && float64(wc.count)/float64(totalWords) > 0.05 && !seen[wc.word] {
			seen[wc.word] = true
			flagged = append(flagged, models.FlaggedWord{
				Word:      wc.word,
				Category:  "repetitive",
				Frequency: wc.count,
				Severity:  "low",
			})
		}
	}

	// Conversational fallback so an entirely clean transcript still
	// surfaces its affirmative vocabulary.
	if len(flagged) == 0 {
		for _, word := range conversationalPositives {
			if count, ok := freq[word]; ok && !seen[word] {
				seen[word] = true
				flagged = append(flagged, models.FlaggedWord{
					Word:      word,
					Category:  "positive",
					Frequency: count,
					Severity:  "low",
				})
			}
		}
	}

	severityRank := map[string]int{"high": 3, "medium": 2, "low": 1}
	sort.SliceStable(flagged, func(i, j int) bool {
		return severityRank[flagged[i].Severity] > severityRank[flagged[j].Severity]
	})

	return flagged
}

type wordCount struct {
	word  string
	count int
}

// sortedFreqSlice orders the frequency table for a deterministic scan:
// by descending count, then alphabetically.
func sortedFreqSlice(freq map[string]int) []wordCount {
	out := make([]wordCount, 0, len(freq))
	for word, count := range freq {
		out = append(out, wordCount{word, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].word < out[j].word
	})
	return out
}

// wordFrequencies lower-cases, strips non-word characters, and counts
// tokens longer than two characters.
func wordFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := nonWordChars.ReplaceAllString(token, "")
		if len(word) > 2 {
			freq[word]++
		}
	}
	return freq
}

var nonWordChars = regexp.MustCompile(`[^\w]`)

// extractWords extracts all lower-cased words from text
func extractWords(text string) []string {
	text = strings.ToLower(text)
	text = nonWordSpace.ReplaceAllString(text, " ")
	return strings.Fields(text)
}

var nonWordSpace = regexp.MustCompile(`[^\w\s]`)

// computeStats counts words, characters, and sentences over the
// normalized text. The sentence count is floored at 1.
func computeStats(text string) models.TranscriptStats {
	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	return models.TranscriptStats{
		Words:     len(strings.Fields(text)),
		Chars:     len(text),
		Sentences: sentences,
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)
