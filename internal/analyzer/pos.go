package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

// Tagger assigns part-of-speech tags to the tokens of a text and reports
// how often each tag occurred. Implementations must be safe for concurrent
// use after initialization.
type Tagger interface {
	Tag(text string) (map[string]int, error)
}

// The grammatical tag vocabulary used for linguistic statistics.
const (
	tagNoun             = "NN"
	tagNounPlural       = "NNS"
	tagProperNoun       = "NNP"
	tagProperNounPlural = "NNPS"
	tagVerbBase         = "VB"
	tagVerbPast         = "VBD"
	tagVerbGerund       = "VBG"
	tagVerbParticiple   = "VBN"
	tagVerbPresent      = "VBP"
	tagVerbPresent3rd   = "VBZ"
	tagAdjective        = "JJ"
	tagAdjComparative   = "JJR"
	tagAdjSuperlative   = "JJS"
	tagAdverb           = "RB"
	tagAdvComparative   = "RBR"
	tagAdvSuperlative   = "RBS"
	tagPronoun          = "PRP"
	tagPossessive       = "PRP$"
	tagPreposition      = "IN"
	tagConjunction      = "CC"
	tagDeterminer       = "DT"
	tagModal            = "MD"
	tagCardinal         = "CD"
	tagInterjection     = "UH"
)

var (
	determiners = wordSet("the", "a", "an", "this", "that", "these", "those", "each", "every", "some", "any", "no", "another")
	modals      = wordSet("can", "could", "will", "would", "shall", "should", "may", "might", "must")
	prepositions = wordSet(
		"in", "on", "at", "by", "for", "with", "from", "to", "of", "about",
		"into", "onto", "over", "under", "between", "through", "during",
		"before", "after", "above", "below", "against", "without", "within",
	)
	conjunctions = wordSet("and", "or", "but", "nor", "so", "yet", "because", "although", "while", "if")
	pronouns     = wordSet("i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them", "myself", "yourself", "himself", "herself", "itself", "ourselves", "themselves")
	possessives  = wordSet("my", "your", "his", "its", "our", "their", "mine", "yours", "hers", "ours", "theirs")
	interjections = wordSet("oh", "wow", "hey", "ouch", "hmm", "uh", "um", "yeah", "ah", "oops", "hooray")

	// Irregular verb forms the suffix rules cannot reach.
	verbForms = map[string]string{
		"be": tagVerbBase, "am": tagVerbPresent, "is": tagVerbPresent3rd,
		"are": tagVerbPresent, "was": tagVerbPast, "were": tagVerbPast,
		"been": tagVerbParticiple, "being": tagVerbGerund,
		"do": tagVerbBase, "does": tagVerbPresent3rd, "did": tagVerbPast, "done": tagVerbParticiple,
		"have": tagVerbPresent, "has": tagVerbPresent3rd, "had": tagVerbPast,
		"go": tagVerbBase, "goes": tagVerbPresent3rd, "went": tagVerbPast, "gone": tagVerbParticiple,
		"say": tagVerbBase, "says": tagVerbPresent3rd, "said": tagVerbPast,
		"get": tagVerbBase, "got": tagVerbPast, "make": tagVerbBase, "made": tagVerbPast,
		"think": tagVerbBase, "thought": tagVerbPast, "know": tagVerbBase, "knew": tagVerbPast,
		"take": tagVerbBase, "took": tagVerbPast, "see": tagVerbBase, "saw": tagVerbPast, "seen": tagVerbParticiple,
	}

	numberPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)*$`)
)

// adjectiveSuffixes classify derivational adjective endings; shared by the
// rule tagger and the word-shape fallback.
var adjectiveSuffixes = []string{"ful", "ous", "able", "ible", "ic", "ish", "ive", "less", "some"}

// functionWords is the closed exclusion list for the word-shape fallback.
var functionWords = wordSet(
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"to", "of", "in", "on", "at", "by", "for", "with", "and", "or", "but",
	"not", "no", "it", "he", "she", "they", "we", "you", "i", "this", "that",
	"do", "does", "did", "have", "has", "had", "will", "would", "can",
	"could", "shall", "should", "may", "might",
)

// auxiliaryVerbs flag verb-like words in the word-shape fallback.
var auxiliaryVerbs = wordSet(
	"am", "is", "are", "was", "were", "be", "been", "being", "do", "does",
	"did", "have", "has", "had", "go", "goes", "went", "say", "says", "said",
	"get", "gets", "got", "make", "makes", "made", "see", "sees", "saw",
	"know", "knows", "knew", "think", "thinks", "thought", "take", "takes", "took",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// RuleTagger is the default Tagger: a deterministic word-shape classifier
// over the fixed tag vocabulary. It has no model resources to load.
type RuleTagger struct{}

// NewRuleTagger returns the default rule-based tagger.
func NewRuleTagger() *RuleTagger {
	return &RuleTagger{}
}

// Tag classifies every token of text and returns tag frequencies.
func (rt *RuleTagger) Tag(text string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, token := range strings.Fields(text) {
		word := strings.Trim(token, `.,!?;:"'()[]{}`)
		if word == "" {
			continue
		}
		counts[classifyToken(word)]++
	}
	return counts, nil
}

// classifyToken maps one token to a tag. Closed-class lookups run first,
// then capitalization, then suffix heuristics, with noun as the default.
func classifyToken(word string) string {
	lower := strings.ToLower(word)

	switch {
	case determiners[lower]:
		return tagDeterminer
	case modals[lower]:
		return tagModal
	case possessives[lower]:
		return tagPossessive
	case pronouns[lower]:
		return tagPronoun
	case prepositions[lower]:
		return tagPreposition
	case conjunctions[lower]:
		return tagConjunction
	case interjections[lower]:
		return tagInterjection
	case numberPattern.MatchString(lower):
		return tagCardinal
	}

	if tag, ok := verbForms[lower]; ok {
		return tag
	}

	if r := []rune(word); unicode.IsUpper(r[0]) {
		if strings.HasSuffix(lower, "s") {
			return tagProperNounPlural
		}
		return tagProperNoun
	}

	switch {
	case strings.HasSuffix(lower, "ing") && len(lower) > 4:
		return tagVerbGerund
	case strings.HasSuffix(lower, "ed") && len(lower) > 3:
		return tagVerbPast
	case strings.HasSuffix(lower, "ly") && len(lower) > 3:
		return tagAdverb
	case strings.HasSuffix(lower, "est") && len(lower) > 4:
		return tagAdjSuperlative
	case strings.HasSuffix(lower, "ier") && len(lower) > 4:
		return tagAdjComparative
	}

	for _, suffix := range adjectiveSuffixes {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix)+1 {
			return tagAdjective
		}
	}

	if strings.HasSuffix(lower, "s") && len(lower) > 3 {
		return tagNounPlural
	}
	return tagNoun
}

// shapeFallbackCounts is the deterministic word-shape fallback applied when
// the primary tagger reports nothing for a non-empty text. Function words
// are excluded entirely; everything unclassified counts as a noun.
func shapeFallbackCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range strings.Fields(text) {
		word := strings.ToLower(strings.Trim(token, `.,!?;:"'()[]{}`))
		if word == "" || functionWords[word] {
			continue
		}

		if strings.HasSuffix(word, "ed") || strings.HasSuffix(word, "ing") || auxiliaryVerbs[word] {
			counts[tagVerbBase]++
			continue
		}

		adjective := false
		for _, suffix := range adjectiveSuffixes {
			if strings.HasSuffix(word, suffix) {
				adjective = true
				break
			}
		}
		if adjective {
			counts[tagAdjective]++
			continue
		}

		counts[tagNoun]++
	}
	return counts
}
