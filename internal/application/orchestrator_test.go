package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragarena/arena/infrastructure/judges"
	"github.com/ragarena/arena/infrastructure/storage"
	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/golden"
	"github.com/ragarena/arena/internal/leaderboard"
	"github.com/ragarena/arena/internal/ports"
)

// stubAgent implements ports.AgentInvoker with a per-prompt script.
type stubAgent struct {
	respond func(challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error)
	calls   []string
}

func (a *stubAgent) Invoke(ctx context.Context, challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error) {
	a.calls = append(a.calls, prompt)
	if err := ctx.Err(); err != nil {
		return domain.AgentResponse{}, err
	}
	return a.respond(challenge, prompt)
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	agent        *stubAgent
	evals        *storage.MemoryEvaluationStore
	board        *storage.MemoryLeaderboardStore
}

func newOrchestratorFixture(t *testing.T, agent *stubAgent) orchestratorFixture {
	t.Helper()

	registry, err := golden.Default()
	require.NoError(t, err)

	factcheck, err := judges.NewFactCheckJudge("factcheck-judge", nil, nil, judges.DefaultConfig())
	require.NoError(t, err)
	legal, err := judges.NewLegalJudge("legal-judge", nil, nil, judges.DefaultConfig())
	require.NoError(t, err)

	aggregator, err := NewAggregator(DefaultAggregatorConfig())
	require.NoError(t, err)

	boardStore := storage.NewMemoryLeaderboardStore()
	updater, err := leaderboard.NewUpdater(boardStore, nil)
	require.NoError(t, err)

	evals := storage.NewMemoryEvaluationStore()
	orchestrator, err := NewOrchestrator(
		registry,
		[]ports.Judge{factcheck, legal},
		aggregator,
		agent,
		evals,
		updater,
		DefaultOrchestratorConfig(),
		nil,
		nil,
	)
	require.NoError(t, err)

	return orchestratorFixture{orchestrator: orchestrator, agent: agent, evals: evals, board: boardStore}
}

func echoAgent() *stubAgent {
	return &stubAgent{respond: func(challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error) {
		return domain.AgentResponse{
			ThoughtProcess: "I searched the knowledge base and compared the claim against the retrieved sources in detail.",
			FinalAnswer:    "False",
			Citation:       "retrieved source, relevant section",
		}, nil
	}}
}

func TestNewOrchestrator_Validation(t *testing.T) {
	registry, err := golden.Default()
	require.NoError(t, err)
	aggregator, err := NewAggregator(DefaultAggregatorConfig())
	require.NoError(t, err)

	tests := []struct {
		name     string
		mutate   func(*orchestratorArgs)
		errorMsg string
	}{
		{
			name:     "nil registry",
			mutate:   func(a *orchestratorArgs) { a.registry = nil },
			errorMsg: "registry cannot be nil",
		},
		{
			name:     "nil aggregator",
			mutate:   func(a *orchestratorArgs) { a.aggregator = nil },
			errorMsg: "aggregator cannot be nil",
		},
		{
			name:     "nil agent",
			mutate:   func(a *orchestratorArgs) { a.agent = nil },
			errorMsg: "agent invoker cannot be nil",
		},
		{
			name:     "zero timeout",
			mutate:   func(a *orchestratorArgs) { a.config = OrchestratorConfig{} },
			errorMsg: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := orchestratorArgs{
				registry:   registry,
				aggregator: aggregator,
				agent:      echoAgent(),
				config:     DefaultOrchestratorConfig(),
			}
			tt.mutate(&args)

			_, err := NewOrchestrator(args.registry, nil, args.aggregator, args.agent, nil, nil, args.config, nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

type orchestratorArgs struct {
	registry   *golden.Registry
	aggregator *Aggregator
	agent      ports.AgentInvoker
	config     OrchestratorConfig
}

func TestOrchestrator_Evaluate_FullRun(t *testing.T) {
	fx := newOrchestratorFixture(t, echoAgent())
	ctx := context.Background()

	eval, err := fx.orchestrator.Evaluate(ctx, EvaluationRequest{
		SubmissionID: "sub-1",
		TeamID:       "team-a",
		Challenge:    domain.ChallengeFactCheck,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, eval.Status)
	require.Len(t, eval.Questions, 5)
	assert.Len(t, fx.agent.calls, 5)
	assert.False(t, eval.CompletedAt.IsZero())
	assert.NotEmpty(t, eval.ID)

	for _, r := range eval.Questions {
		assert.False(t, r.Failed())
		assert.GreaterOrEqual(t, r.OverallScore, 0.0)
		assert.LessOrEqual(t, r.OverallScore, 10.0)
	}
	assert.Len(t, strings.Split(eval.Feedback, "\n"), 5)

	stored, err := fx.evals.Get(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, eval.Scores, stored.Scores)

	rec, err := fx.board.Get(ctx, "team-a", domain.ChallengeFactCheck)
	require.NoError(t, err)
	assert.Equal(t, eval.Scores.Overall, rec.BestScore)
	assert.Equal(t, "sub-1", rec.BestSubmissionID)
	assert.Equal(t, 1, rec.SubmissionCount)
}

func TestOrchestrator_Evaluate_PartialAgentFailure(t *testing.T) {
	agent := &stubAgent{respond: func(challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error) {
		if strings.Contains(prompt, "Eiffel") {
			return domain.AgentResponse{}, errors.New("agent returned status 500")
		}
		return domain.AgentResponse{FinalAnswer: "False", Citation: "source"}, nil
	}}
	fx := newOrchestratorFixture(t, agent)

	eval, err := fx.orchestrator.Evaluate(context.Background(), EvaluationRequest{
		SubmissionID: "sub-1",
		TeamID:       "team-a",
		Challenge:    domain.ChallengeFactCheck,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, eval.Status)
	require.Len(t, eval.Questions, 5)

	var failed int
	for _, r := range eval.Questions {
		if r.Failed() {
			failed++
			assert.Zero(t, r.OverallScore)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Contains(t, eval.Feedback, "Error - agent returned status 500")
}

func TestOrchestrator_Evaluate_AllQuestionsFailStillCompletes(t *testing.T) {
	agent := &stubAgent{respond: func(domain.ChallengeType, string) (domain.AgentResponse, error) {
		return domain.AgentResponse{}, errors.New("connection refused")
	}}
	fx := newOrchestratorFixture(t, agent)

	eval, err := fx.orchestrator.Evaluate(context.Background(), EvaluationRequest{
		SubmissionID: "sub-1",
		TeamID:       "team-a",
		Challenge:    domain.ChallengeLegal,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, eval.Status)
	assert.Zero(t, eval.Scores.Overall)
	assert.Contains(t, eval.Feedback, "Could not connect to your API")

	rec, err := fx.board.Get(context.Background(), "team-a", domain.ChallengeLegal)
	require.NoError(t, err)
	assert.Zero(t, rec.BestScore)
}

func TestOrchestrator_Evaluate_RequestValidation(t *testing.T) {
	fx := newOrchestratorFixture(t, echoAgent())

	tests := []struct {
		name string
		req  EvaluationRequest
	}{
		{name: "missing submission id", req: EvaluationRequest{TeamID: "team-a", Challenge: domain.ChallengeFactCheck}},
		{name: "missing team id", req: EvaluationRequest{SubmissionID: "sub-1", Challenge: domain.ChallengeFactCheck}},
		{name: "unknown challenge", req: EvaluationRequest{SubmissionID: "sub-1", TeamID: "team-a", Challenge: "chess"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.orchestrator.Evaluate(context.Background(), tt.req)
			require.Error(t, err)
		})
	}
}

func TestOrchestrator_Evaluate_BestScoreAcrossResubmissions(t *testing.T) {
	fx := newOrchestratorFixture(t, echoAgent())
	ctx := context.Background()

	first, err := fx.orchestrator.Evaluate(ctx, EvaluationRequest{
		SubmissionID: "sub-1", TeamID: "team-a", Challenge: domain.ChallengeFactCheck,
	})
	require.NoError(t, err)

	// A broken resubmission must not lower the leaderboard score.
	fx.agent.respond = func(domain.ChallengeType, string) (domain.AgentResponse, error) {
		return domain.AgentResponse{}, errors.New("connection refused")
	}
	_, err = fx.orchestrator.Evaluate(ctx, EvaluationRequest{
		SubmissionID: "sub-2", TeamID: "team-a", Challenge: domain.ChallengeFactCheck,
	})
	require.NoError(t, err)

	rec, err := fx.board.Get(ctx, "team-a", domain.ChallengeFactCheck)
	require.NoError(t, err)
	assert.Equal(t, first.Scores.Overall, rec.BestScore)
	assert.Equal(t, "sub-1", rec.BestSubmissionID)
	assert.Equal(t, 2, rec.SubmissionCount)
}

func TestOrchestrator_MarkFailed(t *testing.T) {
	fx := newOrchestratorFixture(t, echoAgent())
	ctx := context.Background()

	req := EvaluationRequest{SubmissionID: "sub-1", TeamID: "team-a", Challenge: domain.ChallengeFactCheck}
	require.NoError(t, fx.orchestrator.MarkFailed(ctx, req, errors.New("job deadline exceeded")))

	eval, err := fx.evals.Get(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, eval.Status)
	assert.Equal(t, "job deadline exceeded", eval.ErrorMessage)
	assert.Contains(t, eval.Feedback, "Is your API endpoint running?")
}
