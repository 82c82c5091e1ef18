package application

import (
	"fmt"
	"strings"

	"github.com/ragarena/arena/internal/domain"
)

// GenerateFeedback builds the per-question hint text shown to a team
// after evaluation. Hints steer without revealing golden answers:
// failed questions get a diagnosis of the failure class, low scores get
// a challenge-specific retrieval or reasoning nudge, and the rest get a
// score-banded encouragement. Lines follow question order.
func GenerateFeedback(results []domain.QuestionResult, challenge domain.ChallengeType) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, questionHint(r, challenge))
	}
	if len(lines) == 0 {
		return "No detailed feedback available."
	}
	return strings.Join(lines, "\n")
}

func questionHint(r domain.QuestionResult, challenge domain.ChallengeType) string {
	if r.Failed() {
		return fmt.Sprintf("%s: %s", r.QuestionID, errorHint(r.Err))
	}

	switch {
	case r.OverallScore < 3:
		weakRetrieval := r.Component(domain.ScoreRetrieval) < 5
		switch {
		case challenge == domain.ChallengeFactCheck && weakRetrieval:
			return fmt.Sprintf("%s: Try improving your search queries to find more relevant documents.", r.QuestionID)
		case challenge == domain.ChallengeFactCheck:
			return fmt.Sprintf("%s: Check for negations ('NOT', 'myth') and verify exact facts.", r.QuestionID)
		case weakRetrieval:
			return fmt.Sprintf("%s: Search for exception and amendment clauses too.", r.QuestionID)
		default:
			return fmt.Sprintf("%s: Look for conflicting clauses and explain when each applies.", r.QuestionID)
		}
	case r.OverallScore < 7:
		return fmt.Sprintf("%s: Partial score. Improve reasoning clarity or citations.", r.QuestionID)
	default:
		return fmt.Sprintf("%s: Good job!", r.QuestionID)
	}
}

func errorHint(err string) string {
	lower := strings.ToLower(err)
	switch {
	case strings.Contains(lower, "connect"):
		return "Could not connect to your API. Make sure it's running."
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		return "Request timed out. Your solution may be too slow."
	case strings.Contains(lower, "json"):
		return "Response format error. Ensure you return valid JSON with required fields."
	default:
		if len(err) > 100 {
			err = err[:100]
		}
		return "Error - " + err
	}
}
