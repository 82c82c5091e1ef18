package domain

import (
	"errors"
	"fmt"
)

// Common domain errors shared across the scoring engine.
var (
	// ErrUnknownChallenge indicates a challenge type outside the fixed set.
	ErrUnknownChallenge = errors.New("unknown challenge type")

	// ErrQuestionNotFound indicates a question id with no golden answer
	// in the requested challenge.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrPartitionViolation indicates golden data whose public/private
	// split is inconsistent. This is a configuration bug and must fail
	// at load time, never mid-evaluation.
	ErrPartitionViolation = errors.New("public/private partition violation")

	// ErrEmptyTeamID indicates a leaderboard update without a team.
	ErrEmptyTeamID = errors.New("team id cannot be empty")
)

// RegistryError wraps a golden-registry failure with the challenge and
// question that triggered it.
type RegistryError struct {
	// Challenge is the challenge that was queried.
	Challenge ChallengeType

	// QuestionID is the id involved in the failure, if any.
	QuestionID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for RegistryError.
func (e *RegistryError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("golden registry: challenge=%s: %v", e.Challenge, e.Err)
	}
	return fmt.Sprintf("golden registry: challenge=%s question=%s: %v", e.Challenge, e.QuestionID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *RegistryError) Unwrap() error { return e.Err }

// NewRegistryError creates a RegistryError with the given context.
func NewRegistryError(challenge ChallengeType, questionID string, err error) *RegistryError {
	return &RegistryError{Challenge: challenge, QuestionID: questionID, Err: err}
}
