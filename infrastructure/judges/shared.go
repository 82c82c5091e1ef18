// Package judges implements the response judges for the arena's fixed
// challenges. A judge grades one agent response against one golden answer,
// preferring the configured LLM rubric grader and degrading to a
// deterministic rule-based grader whenever the LLM path is unavailable,
// times out, or returns a malformed payload. A judge never returns an
// error: every failure mode collapses into a zero-scored result.
package judges

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// Score bounds shared by every rubric dimension and overall score.
const (
	// MinScore is the lowest score any dimension may take.
	MinScore = 0.0

	// MaxScore is the highest score any dimension may take.
	MaxScore = 10.0
)

// Common errors returned while constructing or running judges.
var (
	// ErrEmptyJudgeName is returned when a judge is created without a name.
	ErrEmptyJudgeName = errors.New("judge name cannot be empty")

	// ErrNoJSONFound is returned when no JSON object can be recovered
	// from the LLM's grading response.
	ErrNoJSONFound = errors.New("no valid JSON found in LLM response")

	// ErrMissingDimension is returned when the LLM's JSON omits a
	// required rubric dimension.
	ErrMissingDimension = errors.New("rubric dimension missing from LLM response")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder so fallback grading
// does not allocate a caser per comparison.
var foldCaser = cases.Fold()

// clampScore forces a score into the [MinScore, MaxScore] range.
// LLM graders occasionally return 10.5 or -1 despite the prompt contract.
func clampScore(s float64) float64 {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// containsFold reports whether s contains substr under Unicode case folding.
func containsFold(s, substr string) bool {
	return strings.Contains(foldCaser.String(s), foldCaser.String(substr))
}

// keywordHits counts how many key points are mentioned in text. A key
// point counts when any of its words longer than three characters appears
// in the text, case-insensitively. Short words ("is", "the", "to") carry
// no signal and are skipped.
func keywordHits(keyPoints []string, text string) int {
	folded := foldCaser.String(text)
	hits := 0
	for _, point := range keyPoints {
		for _, word := range strings.Fields(foldCaser.String(point)) {
			if len(word) > 3 && strings.Contains(folded, word) {
				hits++
				break
			}
		}
	}
	return hits
}
