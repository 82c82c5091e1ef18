package domain

import "time"

// Component score keys shared between judges and the aggregator.
// Each judge assigns a subset of these per question; the aggregator
// rolls the shared ones up across all questions.
const (
	// ScoreRetrieval measures whether the agent surfaced the expected
	// reference documents or clauses.
	ScoreRetrieval = "retrieval_score"

	// ScoreVerdict measures verdict accuracy for the factcheck challenge.
	ScoreVerdict = "verdict_score"

	// ScoreCorrectness measures answer correctness for the legal challenge.
	ScoreCorrectness = "correctness_score"

	// ScoreFaithfulness measures grounding in the retrieved material.
	ScoreFaithfulness = "faithfulness_score"

	// ScoreReasoning measures the quality of the agent's reasoning trace.
	ScoreReasoning = "reasoning_score"

	// ScoreConflict measures detection of conflicting clauses (legal only).
	ScoreConflict = "conflict_score"

	// ScoreCitation measures citation accuracy (legal only).
	ScoreCitation = "citation_score"
)

// AgentResponse is the loosely-typed envelope returned by a participant's
// agent for one question. Every field may be absent in the wire payload;
// zero values are the documented defaults and judging must never fail on
// a missing field.
type AgentResponse struct {
	// ThoughtProcess is the agent's free-text reasoning trace.
	ThoughtProcess string `json:"thought_process"`

	// RetrievedContextIDs lists the document/clause ids the agent pulled
	// from the knowledge base while answering.
	RetrievedContextIDs []string `json:"retrieved_context_ids"`

	// FinalAnswer is the agent's verdict or answer text.
	FinalAnswer string `json:"final_answer"`

	// Citation quotes or references the supporting source material.
	Citation string `json:"citation"`
}

// Normalize replaces nil collections with empty ones so downstream code
// can iterate without nil checks. It is called once at the judge boundary.
func (r *AgentResponse) Normalize() {
	if r.RetrievedContextIDs == nil {
		r.RetrievedContextIDs = []string{}
	}
}

// QuestionResult is the graded outcome for one (submission, question) pair.
// When Err is non-empty every score is zero.
type QuestionResult struct {
	// QuestionID identifies the graded test question.
	QuestionID string `json:"question_id"`

	// ComponentScores holds the per-dimension rubric scores, each in [0, 10].
	ComponentScores map[string]float64 `json:"component_scores"`

	// OverallScore is the fixed weighted sum of the retrieval score and the
	// rubric dimensions, in [0, 10]. It is canonical: nothing downstream
	// re-derives it from the components.
	OverallScore float64 `json:"overall_score"`

	// Feedback is the judge's free-text critique shown to the team.
	Feedback string `json:"feedback"`

	// Err records why grading failed, if it did. A set Err implies all
	// scores are zero; the submission still completes.
	Err string `json:"error,omitempty"`
}

// Failed reports whether this question could not be graded.
func (q QuestionResult) Failed() bool { return q.Err != "" }

// Component returns the named component score, or 0 if the judge did not
// assign that dimension.
func (q QuestionResult) Component(key string) float64 {
	if q.ComponentScores == nil {
		return 0
	}
	return q.ComponentScores[key]
}

// ErrorResult builds the zero-scored result used when a question cannot
// be evaluated: transport failures, malformed agent payloads, or an
// internal judge error.
func ErrorResult(questionID, reason string) QuestionResult {
	return QuestionResult{
		QuestionID:      questionID,
		ComponentScores: map[string]float64{},
		OverallScore:    0,
		Err:             reason,
	}
}

// SubmissionScores is the aggregated summary for one submission.
// It is derived: re-running the aggregator over the same QuestionResult
// list reproduces it exactly.
type SubmissionScores struct {
	// Overall is the submission's headline score per the configured
	// combination rule (best-of-partitions or flat mean).
	Overall float64 `json:"overall_score"`

	// Public is the mean overall score across public questions.
	Public float64 `json:"public_score"`

	// Private is the mean overall score across private questions.
	Private float64 `json:"private_score"`

	// Retrieval, Faithfulness, and Reasoning are flat means of the
	// corresponding component across all questions, public and private.
	Retrieval    float64 `json:"retrieval_score"`
	Faithfulness float64 `json:"faithfulness_score"`
	Reasoning    float64 `json:"reasoning_score"`
}

// SubmissionStatus tracks a submission through its evaluation lifecycle.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusRunning   SubmissionStatus = "running"
	StatusCompleted SubmissionStatus = "completed"
	StatusFailed    SubmissionStatus = "failed"
)

// Evaluation is the durable detail record for one evaluated submission:
// the summary scores plus the append-only per-question breakdown.
type Evaluation struct {
	// ID uniquely identifies this evaluation (a UUID).
	ID string `json:"id"`

	// SubmissionID identifies the submission that was evaluated.
	SubmissionID string `json:"submission_id"`

	// TeamID identifies the submitting team.
	TeamID string `json:"team_id"`

	// Challenge is the challenge the submission entered.
	Challenge ChallengeType `json:"challenge"`

	// Status is the submission's lifecycle state.
	Status SubmissionStatus `json:"status"`

	// Scores is the aggregated summary.
	Scores SubmissionScores `json:"scores"`

	// Questions holds the per-question results in test-question order.
	Questions []QuestionResult `json:"question_results"`

	// Feedback is the generated per-question hint text for the team.
	Feedback string `json:"feedback,omitempty"`

	// ErrorMessage is set when the submission failed as a whole.
	ErrorMessage string `json:"error_message,omitempty"`

	// CreatedAt records when evaluation started.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt records when evaluation finished, zero while running.
	CompletedAt time.Time `json:"completed_at,omitzero"`
}
