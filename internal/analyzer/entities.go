package analyzer

import (
	"regexp"

	"github.com/zombar/interviewlens/internal/models"
)

// entityConfidence is the fixed score attached to every pattern match.
// The rules are heuristic; no per-match probability exists.
const entityConfidence = 0.8

// maxEntities caps the entity list in a report.
const maxEntities = 25

// entityRule pairs an entity category with its compiled patterns.
// Rules are evaluated in this order and matches are collected across all
// categories before truncation.
type entityRule struct {
	category string
	patterns []*regexp.Regexp
}

var entityRules = []entityRule{
	{
		category: "PERSON",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
		},
	},
	{
		category: "ORGANIZATION",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Z][A-Za-z]+\s+(?:Inc|Corp|Corporation|Company|LLC|Ltd|Group|University|Institute|Agency|Department|Foundation)\b\.?`),
		},
	},
	{
		category: "LOCATION",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Z][a-z]+\s+(?:City|Street|Avenue|Road|Boulevard|County|State|Park|River|Lake|Mountain|Valley|Beach|Island)\b`),
		},
	},
	{
		category: "DATE",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
			regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}\b`),
			regexp.MustCompile(`\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`),
			regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		},
	},
	{
		category: "TIME",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(?:AM|PM|am|pm)\b`),
		},
	},
	{
		category: "EMAIL",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		},
	},
	{
		category: "PHONE",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
		},
	},
}

// extractEntities runs every category's patterns over the text and collects
// matches in rule order, truncated to maxEntities.
func extractEntities(text string) []models.Entity {
	entities := []models.Entity{}
	for _, rule := range entityRules {
		for _, pattern := range rule.patterns {
			for _, match := range pattern.FindAllString(text, -1) {
				entities = append(entities, models.Entity{
					Text:       match,
					Category:   rule.category,
					Confidence: entityConfidence,
				})
				if len(entities) >= maxEntities {
					return entities
				}
			}
		}
	}
	return entities
}
