package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/golden"
	"github.com/ragarena/arena/internal/leaderboard"
	"github.com/ragarena/arena/internal/ports"
)

// OrchestratorConfig defines the evaluation run parameters.
type OrchestratorConfig struct {
	// AgentTimeout bounds each call to the participant's agent. A timeout
	// fails the question, not the submission.
	AgentTimeout time.Duration `yaml:"agent_timeout" json:"agent_timeout" validate:"required,min=1s,max=10m"`
}

// DefaultOrchestratorConfig returns the shipped run configuration.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{AgentTimeout: 60 * time.Second}
}

// EvaluationRequest identifies one submission to evaluate.
type EvaluationRequest struct {
	SubmissionID string               `json:"submission_id" validate:"required"`
	TeamID       string               `json:"team_id" validate:"required"`
	Challenge    domain.ChallengeType `json:"challenge" validate:"required,oneof=factcheck legal"`
}

// Orchestrator drives one submission through its challenge's test
// questions. Questions run sequentially: agent endpoints are rate
// sensitive and sequential order keeps the feedback deterministic.
// Per-question failures become zero-scored results and the run
// continues; the submission itself only fails when persistence does.
type Orchestrator struct {
	registry   *golden.Registry
	judges     map[domain.ChallengeType]ports.Judge
	aggregator *Aggregator
	agent      ports.AgentInvoker
	evals      ports.EvaluationStore
	board      *leaderboard.Updater
	config     OrchestratorConfig
	logger     *zap.Logger
	metrics    ports.MetricsCollector
	tracer     trace.Tracer
}

// NewOrchestrator wires the evaluation pipeline. One judge per
// challenge is required; evals, board, metrics, and logger may be nil
// for partial wirings in tests.
func NewOrchestrator(
	registry *golden.Registry,
	judgeList []ports.Judge,
	aggregator *Aggregator,
	agent ports.AgentInvoker,
	evals ports.EvaluationStore,
	board *leaderboard.Updater,
	config OrchestratorConfig,
	logger *zap.Logger,
	metrics ports.MetricsCollector,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("golden answer registry cannot be nil")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator cannot be nil")
	}
	if agent == nil {
		return nil, fmt.Errorf("agent invoker cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("orchestrator configuration validation failed: %w", err)
	}

	judges := make(map[domain.ChallengeType]ports.Judge, len(judgeList))
	for _, j := range judgeList {
		if _, ok := judges[j.Challenge()]; ok {
			return nil, fmt.Errorf("duplicate judge for challenge %q", j.Challenge())
		}
		judges[j.Challenge()] = j
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		registry:   registry,
		judges:     judges,
		aggregator: aggregator,
		agent:      agent,
		evals:      evals,
		board:      board,
		config:     config,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("evaluation-orchestrator"),
	}, nil
}

// Evaluate runs one submission end to end: every question of the
// challenge, aggregation, feedback, persistence, leaderboard. The
// returned evaluation is also what was persisted.
func (o *Orchestrator) Evaluate(ctx context.Context, req EvaluationRequest) (domain.Evaluation, error) {
	if err := validate.Struct(req); err != nil {
		return domain.Evaluation{}, fmt.Errorf("evaluation request validation failed: %w", err)
	}
	judge, ok := o.judges[req.Challenge]
	if !ok {
		return domain.Evaluation{}, fmt.Errorf("%w: no judge for %q", domain.ErrUnknownChallenge, req.Challenge)
	}

	ctx, span := o.tracer.Start(ctx, "Orchestrator.Evaluate",
		trace.WithAttributes(
			attribute.String("submission.id", req.SubmissionID),
			attribute.String("team.id", req.TeamID),
			attribute.String("challenge", string(req.Challenge)),
		),
	)
	defer span.End()

	start := time.Now()
	logger := o.logger.With(
		zap.String("submission_id", req.SubmissionID),
		zap.String("team_id", req.TeamID),
		zap.String("challenge", string(req.Challenge)),
	)
	logger.Info("starting evaluation")

	eval := domain.Evaluation{
		ID:           uuid.NewString(),
		SubmissionID: req.SubmissionID,
		TeamID:       req.TeamID,
		Challenge:    req.Challenge,
		Status:       domain.StatusRunning,
		CreatedAt:    start.UTC(),
	}
	o.saveEvaluation(ctx, logger, eval)

	questions, err := o.registry.Questions(req.Challenge)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("loading test questions: %w", err)
	}
	results := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, o.evaluateQuestion(ctx, judge, q))
	}

	public, private, err := o.registry.Partition(req.Challenge)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("loading question partition: %w", err)
	}
	scores := o.aggregator.Aggregate(results, public, private)

	eval.Status = domain.StatusCompleted
	eval.Scores = scores
	eval.Questions = results
	eval.Feedback = GenerateFeedback(results, req.Challenge)
	eval.CompletedAt = time.Now().UTC()

	if err := o.persist(ctx, req, eval); err != nil {
		logger.Error("evaluation persistence failed", zap.Error(err))
		return domain.Evaluation{}, err
	}

	span.SetAttributes(attribute.Float64("eval.score", scores.Overall))
	if o.metrics != nil {
		o.metrics.RecordLatency("evaluation", time.Since(start),
			map[string]string{"challenge": string(req.Challenge)})
		o.metrics.RecordHistogram("submission_overall_score", scores.Overall,
			map[string]string{"challenge": string(req.Challenge)})
	}
	logger.Info("evaluation completed",
		zap.Float64("overall_score", scores.Overall),
		zap.Float64("public_score", scores.Public),
		zap.Float64("private_score", scores.Private),
		zap.Duration("duration", time.Since(start)))
	return eval, nil
}

// evaluateQuestion runs the agent and the judge for one question.
// Every failure path yields a zero-scored result so the run continues.
func (o *Orchestrator) evaluateQuestion(ctx context.Context, judge ports.Judge, q domain.GoldenAnswer) domain.QuestionResult {
	logger := o.logger.With(zap.String("question_id", q.QuestionID))

	callCtx, cancel := context.WithTimeout(ctx, o.config.AgentTimeout)
	defer cancel()

	resp, err := o.agent.Invoke(callCtx, q.Challenge, q.Prompt)
	if err != nil {
		logger.Warn("agent call failed", zap.Error(err))
		if o.metrics != nil {
			o.metrics.RecordCounter("agent_call_errors_total", 1,
				map[string]string{"challenge": string(q.Challenge)})
		}
		return domain.ErrorResult(q.QuestionID, err.Error())
	}

	result := judge.Grade(ctx, q, resp)
	logger.Debug("question graded", zap.Float64("overall_score", result.OverallScore))
	return result
}

// persist writes the evaluation row and folds the score into the
// leaderboard. Failures here fail the submission: a scored run that
// was never recorded must surface for retry.
func (o *Orchestrator) persist(ctx context.Context, req EvaluationRequest, eval domain.Evaluation) error {
	if o.evals != nil {
		if err := o.evals.Save(ctx, eval); err != nil {
			return fmt.Errorf("saving evaluation: %w", err)
		}
	}
	if o.board != nil {
		if _, err := o.board.Update(ctx, req.TeamID, req.Challenge, eval.Scores.Overall, req.SubmissionID); err != nil {
			return fmt.Errorf("updating leaderboard: %w", err)
		}
	}
	return nil
}

// saveEvaluation records a lifecycle transition, tolerating store
// absence and errors. The final persist is the authoritative write.
func (o *Orchestrator) saveEvaluation(ctx context.Context, logger *zap.Logger, eval domain.Evaluation) {
	if o.evals == nil {
		return
	}
	if err := o.evals.Save(ctx, eval); err != nil {
		logger.Warn("evaluation status write failed", zap.Error(err))
	}
}

// MarkFailed records a submission-level failure, such as a panic in the
// worker or an evaluation that exceeded its job deadline. Results are
// not recoverable at this point; the team gets a diagnostic instead.
func (o *Orchestrator) MarkFailed(ctx context.Context, req EvaluationRequest, cause error) error {
	if o.evals == nil {
		return nil
	}
	now := time.Now().UTC()
	eval := domain.Evaluation{
		ID:           uuid.NewString(),
		SubmissionID: req.SubmissionID,
		TeamID:       req.TeamID,
		Challenge:    req.Challenge,
		Status:       domain.StatusFailed,
		ErrorMessage: cause.Error(),
		CreatedAt:    now,
		CompletedAt:  now,
		Feedback: "Evaluation failed: " + truncateError(cause) + "\n\nPlease check:\n" +
			"- Is your API endpoint running?\n" +
			"- Does it return the correct JSON format?\n" +
			"- Are all required fields present?",
	}
	if err := o.evals.Save(ctx, eval); err != nil {
		return fmt.Errorf("recording failed evaluation: %w", err)
	}
	return nil
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
