package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragarena/arena/infrastructure/judges"
	"github.com/ragarena/arena/infrastructure/storage"
	"github.com/ragarena/arena/internal/application"
	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/golden"
	"github.com/ragarena/arena/internal/leaderboard"
	"github.com/ragarena/arena/internal/ports"
)

type scriptedAgent struct {
	err error
}

func (a *scriptedAgent) Invoke(ctx context.Context, challenge domain.ChallengeType, prompt string) (domain.AgentResponse, error) {
	if a.err != nil {
		return domain.AgentResponse{}, a.err
	}
	return domain.AgentResponse{FinalAnswer: "False", Citation: "source"}, nil
}

func newTestServer(t *testing.T, agent ports.AgentInvoker) (*Server, *storage.MemoryEvaluationStore) {
	t.Helper()

	registry, err := golden.Default()
	require.NoError(t, err)
	factcheck, err := judges.NewFactCheckJudge("fc", nil, nil, judges.DefaultConfig())
	require.NoError(t, err)
	legal, err := judges.NewLegalJudge("legal", nil, nil, judges.DefaultConfig())
	require.NoError(t, err)
	aggregator, err := application.NewAggregator(application.DefaultAggregatorConfig())
	require.NoError(t, err)
	updater, err := leaderboard.NewUpdater(storage.NewMemoryLeaderboardStore(), nil)
	require.NoError(t, err)

	evals := storage.NewMemoryEvaluationStore()
	orchestrator, err := application.NewOrchestrator(
		registry,
		[]ports.Judge{factcheck, legal},
		aggregator,
		agent,
		evals,
		updater,
		application.DefaultOrchestratorConfig(),
		nil,
		nil,
	)
	require.NoError(t, err)

	server, err := NewServer(orchestrator, nil, 1)
	require.NoError(t, err)
	return server, evals
}

func evaluateTask(t *testing.T, req application.EvaluationRequest) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return asynq.NewTask(TaskEvaluateSubmission, payload)
}

func TestNewServer_RequiresOrchestrator(t *testing.T) {
	_, err := NewServer(nil, nil, 1)
	require.Error(t, err)
}

func TestServer_HandleEvaluate(t *testing.T) {
	server, evals := newTestServer(t, &scriptedAgent{})

	req := application.EvaluationRequest{
		SubmissionID: "sub-1",
		TeamID:       "team-a",
		Challenge:    domain.ChallengeFactCheck,
	}
	require.NoError(t, server.handleEvaluate(context.Background(), evaluateTask(t, req)))

	eval, err := evals.Get(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, eval.Status)
	assert.Len(t, eval.Questions, 5)
}

func TestServer_HandleEvaluate_BadPayloadSkipsRetry(t *testing.T) {
	server, _ := newTestServer(t, &scriptedAgent{})

	task := asynq.NewTask(TaskEvaluateSubmission, []byte("not json"))
	err := server.handleEvaluate(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestServer_HandleEvaluate_InvalidRequestSkipsRetry(t *testing.T) {
	server, evals := newTestServer(t, &scriptedAgent{})

	req := application.EvaluationRequest{SubmissionID: "sub-1", TeamID: "team-a", Challenge: "chess"}
	err := server.handleEvaluate(context.Background(), evaluateTask(t, req))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	eval, err := evals.Get(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, eval.Status)
}

func TestServer_HandleEvaluate_AgentDownStillCompletes(t *testing.T) {
	server, evals := newTestServer(t, &scriptedAgent{err: errors.New("connection refused")})

	req := application.EvaluationRequest{
		SubmissionID: "sub-1",
		TeamID:       "team-a",
		Challenge:    domain.ChallengeLegal,
	}
	require.NoError(t, server.handleEvaluate(context.Background(), evaluateTask(t, req)))

	eval, err := evals.Get(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, eval.Status)
	assert.Zero(t, eval.Scores.Overall)
}
