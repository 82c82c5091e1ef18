// Package domain defines the core types of the arena scoring engine:
// challenges, golden answers, agent responses, per-question results,
// submission summaries, and leaderboard records.
// The types are plain data with no infrastructure dependencies so that
// judges, aggregation, and stores can share them freely.
package domain

// ChallengeType identifies one of the fixed competition challenges.
type ChallengeType string

const (
	// ChallengeFactCheck is the fact-verification challenge: agents receive
	// a claim and must return a True/False verdict with supporting documents.
	ChallengeFactCheck ChallengeType = "factcheck"

	// ChallengeLegal is the legal-clause-reasoning challenge: agents receive
	// a zoning question and must reason over potentially conflicting clauses.
	ChallengeLegal ChallengeType = "legal"
)

// Valid reports whether the challenge type is one of the known challenges.
func (c ChallengeType) Valid() bool {
	return c == ChallengeFactCheck || c == ChallengeLegal
}

// String returns the string representation of the challenge type.
func (c ChallengeType) String() string { return string(c) }

// Visibility marks whether a test question's score is shown during the
// competition (public) or revealed only after judging closes (private).
type Visibility string

const (
	// VisibilityPublic questions contribute to the score teams see live.
	VisibilityPublic Visibility = "public"

	// VisibilityPrivate questions are held back until the competition ends.
	VisibilityPrivate Visibility = "private"
)

// GoldenAnswer is the ground truth for one test question.
// Instances are immutable after registry load; judges only read them.
type GoldenAnswer struct {
	// QuestionID uniquely identifies the question within its challenge.
	QuestionID string `yaml:"question_id" json:"question_id" validate:"required"`

	// Challenge is the challenge this question belongs to.
	Challenge ChallengeType `yaml:"challenge" json:"challenge" validate:"required,oneof=factcheck legal"`

	// Prompt is the claim (factcheck) or query (legal) sent to the agent.
	Prompt string `yaml:"prompt" json:"prompt" validate:"required"`

	// Expected is the expected verdict (factcheck) or answer (legal).
	Expected string `yaml:"expected" json:"expected" validate:"required"`

	// ExpectedRefs lists the document or clause ids a correct retrieval
	// should surface. Order is irrelevant; membership is what counts.
	ExpectedRefs []string `yaml:"expected_refs" json:"expected_refs" validate:"required,min=1"`

	// KeyPoints are the facts or reasoning steps a strong answer mentions.
	// The fallback judge matches them case-insensitively against the
	// agent's thought process.
	KeyPoints []string `yaml:"key_points" json:"key_points"`

	// Visibility controls the public/private partition membership.
	Visibility Visibility `yaml:"visibility" json:"visibility" validate:"required,oneof=public private"`
}

// IsPublic reports whether the question belongs to the public partition.
func (g GoldenAnswer) IsPublic() bool { return g.Visibility == VisibilityPublic }
