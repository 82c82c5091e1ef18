// Package worker runs evaluation jobs from the submission queue. Each
// job evaluates one submission; jobs for different submissions run
// concurrently while each job walks its questions sequentially.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ragarena/arena/internal/application"
)

// TaskEvaluateSubmission is the queue task type for evaluation jobs.
const TaskEvaluateSubmission = "evaluate_submission"

// jobTimeout bounds one whole evaluation job. Eight questions at the
// 60s agent budget plus grading fits well inside it.
const jobTimeout = 15 * time.Minute

// Server consumes evaluation tasks and runs them through the
// orchestrator.
type Server struct {
	orchestrator *application.Orchestrator
	logger       *zap.Logger
	concurrency  int
}

// NewServer creates a worker server. logger may be nil; concurrency
// values below 1 fall back to 5.
func NewServer(orchestrator *application.Orchestrator, logger *zap.Logger, concurrency int) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 5
	}
	return &Server{orchestrator: orchestrator, logger: logger, concurrency: concurrency}, nil
}

// Run serves evaluation tasks from Redis until the process stops.
func (s *Server) Run(redisAddr string) error {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{Concurrency: s.concurrency},
	)
	return srv.Run(s.mux())
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEvaluateSubmission, s.handleEvaluate)
	return mux
}

// handleEvaluate runs one submission's evaluation. Payload errors are
// terminal; evaluation errors are recorded on the submission and not
// retried, so a broken agent endpoint cannot hold the queue.
func (s *Server) handleEvaluate(ctx context.Context, task *asynq.Task) error {
	var req application.EvaluationRequest
	if err := json.Unmarshal(task.Payload(), &req); err != nil {
		return fmt.Errorf("decoding task payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := s.orchestrator.Evaluate(ctx, req); err != nil {
		s.logger.Error("evaluation job failed",
			zap.String("submission_id", req.SubmissionID),
			zap.Error(err))
		if markErr := s.orchestrator.MarkFailed(ctx, req, err); markErr != nil {
			return markErr
		}
		return fmt.Errorf("evaluation failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

// Enqueuer submits evaluation jobs to the queue.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an enqueuer over the Redis queue at redisAddr.
func NewEnqueuer(redisAddr string) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Enqueue schedules one submission for evaluation. Jobs are not
// retried automatically: failure handling happens inside the job so
// the team always gets a recorded outcome.
func (e *Enqueuer) Enqueue(ctx context.Context, req application.EvaluationRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding evaluation task: %w", err)
	}
	task := asynq.NewTask(TaskEvaluateSubmission, payload)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Timeout(jobTimeout)); err != nil {
		return fmt.Errorf("enqueueing evaluation task: %w", err)
	}
	return nil
}

// Close releases the queue client connection.
func (e *Enqueuer) Close() error { return e.client.Close() }
