package analyzer

// getPositiveWords returns common positive sentiment words
func getPositiveWords() map[string]bool {
	words := []string{
		"good", "great", "excellent", "amazing", "wonderful", "fantastic", "best", "love", "loved", "loving",
		"beautiful", "perfect", "awesome", "brilliant", "outstanding", "superb", "exceptional", "incredible",
		"magnificent", "marvelous", "pleasant", "delightful", "enjoyable", "happy", "glad", "pleased",
		"satisfied", "terrific", "fabulous", "splendid", "impressive", "remarkable", "positive", "advantage",
		"benefit", "success", "successful", "win", "winning", "winner", "better", "improvement", "improved",
		"exciting", "excited", "enthusiasm", "enthusiastic", "optimistic", "hopeful", "promising", "favorable",
		"grateful", "thankful", "proud", "confident", "thrilled", "delighted", "joy", "cheerful",
	}

	positiveWords := make(map[string]bool)
	for _, word := range words {
		positiveWords[word] = true
	}
	return positiveWords
}

// getNegativeWords returns common negative sentiment words
func getNegativeWords() map[string]bool {
	words := []string{
		"bad", "terrible", "awful", "horrible", "poor", "worst", "hate", "hated", "hating", "ugly", "disgusting",
		"disappointing", "disappointed", "disappointment", "fail", "failed", "failure", "wrong", "problem",
		"problems", "issue", "issues", "error", "errors", "difficult", "difficulty", "hard", "impossible",
		"negative", "unfortunate", "sad", "unhappy", "angry", "frustrated", "frustrating", "annoying", "annoyed",
		"concern", "concerned", "worried", "worry", "fear", "afraid", "scary", "dangerous", "risk", "threat",
		"damage", "damaged", "harm", "harmful", "worse", "loss", "lost", "losing", "loser", "decline", "declined",
	}

	negativeWords := make(map[string]bool)
	for _, word := range words {
		negativeWords[word] = true
	}
	return negativeWords
}

// flaggedCategory pairs a flagged-word category with its static keyword
// list and fixed severity. The "repetitive" category has no list; it is
// synthesized from the frequency table at analysis time.
type flaggedCategory struct {
	name     string
	severity string
	words    []string
}

// flaggedCategories is scanned in this order; earlier categories claim a
// word first when it appears in more than one list.
var flaggedCategories = []flaggedCategory{
	{
		name:     "profanity",
		severity: "high",
		words: []string{
			"damn", "hell", "shit", "fuck", "bitch", "asshole", "bastard", "crap",
			"piss", "dick", "cock", "pussy", "tits", "ass", "cum", "jerk",
		},
	},
	{
		name:     "sensitive",
		severity: "high",
		words: []string{
			"kill", "death", "die", "dead", "suicide", "abuse", "rape", "violence",
			"hate", "racist", "sexist", "discrimination", "harassment", "bullying",
		},
	},
	{
		name:     "urgency",
		severity: "medium",
		words: []string{
			"emergency", "urgent", "crisis", "critical", "immediate", "asap",
			"priority", "important", "attention", "warning", "alert", "help",
			"problem", "issue", "trouble", "worried", "concerned", "serious",
		},
	},
	{
		name:     "medical",
		severity: "medium",
		words: []string{
			"pain", "hurt", "injury", "illness", "disease", "sick", "hospital",
			"doctor", "medication", "treatment", "symptoms", "diagnosis", "health",
			"medicine", "therapy", "appointment", "checkup", "condition",
		},
	},
	{
		name:     "positive",
		severity: "low",
		words: []string{
			"happy", "great", "excellent", "amazing", "wonderful", "fantastic",
			"awesome", "brilliant", "perfect", "love", "excited", "thrilled",
			"delighted", "pleased", "satisfied", "joy", "cheerful", "optimistic",
			"hopeful", "grateful", "thankful", "blessed", "proud", "confident",
			"successful", "achieved", "accomplished", "victory", "win", "celebrate",
			"good", "nice", "better", "best", "well", "fine", "okay", "yes",
			"right", "correct", "true", "sure", "absolutely", "definitely",
		},
	},
}

// conversationalPositives is the last-resort check applied when no flagged
// words were found at all.
var conversationalPositives = []string{
	"good", "well", "yes", "right", "okay", "fine", "nice", "great", "happy",
}

// topicKeywords maps each topic in the fixed taxonomy to its keyword list.
// Matching is case-insensitive and whole-word.
var topicKeywords = []struct {
	name     string
	keywords []string
}{
	{"politics", []string{
		"government", "election", "policy", "president", "congress", "senate",
		"vote", "voting", "campaign", "democrat", "republican", "law", "minister",
		"parliament", "political", "legislation",
	}},
	{"finance", []string{
		"money", "bank", "investment", "stock", "market", "economy", "financial",
		"budget", "loan", "debt", "income", "salary", "tax", "profit", "revenue",
		"savings", "price", "cost",
	}},
	{"technology", []string{
		"computer", "software", "internet", "digital", "technology", "data",
		"programming", "code", "algorithm", "machine", "robot", "phone", "app",
		"website", "online", "network", "device",
	}},
	{"health", []string{
		"health", "doctor", "medical", "hospital", "medicine", "patient",
		"treatment", "disease", "symptom", "therapy", "diet", "exercise",
		"wellness", "mental", "clinic", "nurse",
	}},
	{"sports", []string{
		"game", "team", "player", "score", "win", "championship", "football",
		"basketball", "baseball", "soccer", "tennis", "coach", "athlete",
		"tournament", "league", "match",
	}},
	{"education", []string{
		"school", "student", "teacher", "education", "university", "college",
		"class", "learning", "study", "degree", "course", "exam", "lesson",
		"academic", "research", "knowledge",
	}},
}

// contractionPairs expands common English contractions before analysis.
// Applied in order; specific forms precede the generic suffix rules.
var contractionPairs = []struct{ from, to string }{
	{"can't", "cannot"},
	{"won't", "will not"},
	{"n't", " not"},
	{"'re", " are"},
	{"'ve", " have"},
	{"'ll", " will"},
	{"'d", " would"},
	{"'m", " am"},
	{"'s", " is"},
}
