// Package classify scores whether a text span names a research lab. The
// interface matches an offline-trained model; the bundled implementation is
// a deterministic keyword scorer that needs no model artifacts.
package classify

import "strings"

// Classifier predicts whether text is a lab name. Implementations must be
// pure: same input, same answer, no side effects.
type Classifier interface {
	Predict(text string) (isLabName bool, confidence float64)
}

// KeywordClassifier scores lab-ness from marker and supporting keywords.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the keyword scorer.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var labMarkers = []string{"lab", "laboratory", "labs"}

var supportingWords = []string{
	"research", "group", "institute", "center", "centre", "computational",
	"systems", "applied",
}

// decisionThreshold splits the score into a boolean verdict.
const decisionThreshold = 0.5

// Predict scores the text in [0,1]. A lab marker token is required; each
// supporting keyword and a plausible name length raise the score.
func (c *KeywordClassifier) Predict(text string) (bool, float64) {
	text = strings.TrimSpace(text)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 || len(tokens) > 10 {
		return false, 0
	}

	score := 0.0
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,()")
		for _, marker := range labMarkers {
			if tok == marker {
				score = 0.5
			}
		}
	}
	if score == 0 {
		return false, 0
	}

	for _, word := range supportingWords {
		for _, tok := range tokens {
			if strings.Trim(tok, ".,()") == word {
				score += 0.1
			}
		}
	}
	if len(tokens) >= 2 && len(tokens) <= 6 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score >= decisionThreshold, score
}
