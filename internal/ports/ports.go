// Package ports defines the interfaces between the scoring engine and its
// infrastructure: LLM providers, participant agents, durable stores, and
// metrics. These interfaces enable dependency inversion and make the
// engine testable without external services.
package ports

import (
	"context"
	"time"

	"github.com/ragarena/arena/internal/domain"
)

// LLMClient defines the interface for the optional rubric-grading LLM.
// Implementations handle provider-specific authentication, request
// formatting, and response parsing. The judge treats every failure from
// this interface as a signal to fall back to rule-based grading.
type LLMClient interface {
	// Complete sends a completion request and returns the generated text.
	// The options map carries provider-specific settings such as
	// "temperature", "max_tokens", and "response_format".
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens approximates the token count of the given text,
	// used for cost accounting and rate limiting.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier, used for logging and for
	// deciding whether the provider supports JSON output mode.
	GetModel() string
}

// Judge grades one agent response against one golden answer. The two
// challenge-specific implementations live in infrastructure/judges; the
// orchestrator selects the judge by challenge.
type Judge interface {
	// Name returns the judge's unique identifier.
	Name() string

	// Challenge returns the challenge this judge grades.
	Challenge() domain.ChallengeType

	// Grade never returns an error: every failure mode is folded into
	// the returned result, zero-scored with Err set in the worst case.
	Grade(ctx context.Context, golden domain.GoldenAnswer, resp domain.AgentResponse) domain.QuestionResult
}

// AgentInvoker calls a participant's agent with one test question and
// returns its structured response. Implementations own transport details
// (HTTP POST, subprocess, ...) and the per-call timeout.
type AgentInvoker interface {
	// Invoke sends the question prompt for the given challenge and parses
	// the agent's reply. Transport failures, non-2xx statuses, and
	// malformed JSON are returned as errors; the caller converts them
	// into zero-scored per-question results.
	Invoke(ctx context.Context, challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error)
}

// LeaderboardStore provides the primitive operations the leaderboard
// updater composes into an atomic read-modify-write.
// SubmissionCount doubles as an optimistic-concurrency version: it
// increments on every successful update, so a stale read always fails
// its conditional write.
type LeaderboardStore interface {
	// Get returns the record for (team, challenge), or ErrRecordNotFound.
	Get(ctx context.Context, teamID string, challenge domain.ChallengeType) (domain.LeaderboardRecord, error)

	// Insert creates a brand-new record, or returns ErrRecordExists when
	// another writer created one first.
	Insert(ctx context.Context, rec domain.LeaderboardRecord) error

	// Update overwrites the record only if its stored submission count
	// still equals expectedCount; otherwise it returns ErrUpdateConflict
	// and the caller must re-read and retry.
	Update(ctx context.Context, rec domain.LeaderboardRecord, expectedCount int) error

	// TopN returns up to limit records for the challenge ordered by
	// best score descending, team id ascending as the stable tie-break.
	TopN(ctx context.Context, challenge domain.ChallengeType, limit int) ([]domain.LeaderboardRecord, error)
}

// EvaluationStore persists submission evaluation detail records.
// Question results are append-only: a saved evaluation's per-question
// list is never rewritten, only the lifecycle fields advance.
type EvaluationStore interface {
	// Save inserts or replaces the evaluation identified by eval.ID.
	Save(ctx context.Context, eval domain.Evaluation) error

	// Get returns the evaluation for a submission, or ErrRecordNotFound.
	Get(ctx context.Context, submissionID string) (domain.Evaluation, error)
}

// MetricsCollector records operational metrics for evaluations.
// The Prometheus implementation lives in infrastructure/metrics; a no-op
// implementation keeps the engine usable without a metrics backend.
type MetricsCollector interface {
	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordHistogram records a value in a histogram, such as a score
	// distribution.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
