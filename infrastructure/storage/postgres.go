package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/ports"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation, returned when an insert races another writer.
const uniqueViolation = "23505"

// Open connects to Postgres through the pgx stdlib driver.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// PostgresLeaderboardStore implements ports.LeaderboardStore on
// Postgres. Updates are conditional on the stored submission count, so
// the updater's read-modify-write stays atomic without table locks.
type PostgresLeaderboardStore struct {
	db *sqlx.DB
}

// NewPostgresLeaderboardStore creates a store over an open connection.
func NewPostgresLeaderboardStore(db *sqlx.DB) *PostgresLeaderboardStore {
	return &PostgresLeaderboardStore{db: db}
}

// Get returns the record for (team, challenge).
func (s *PostgresLeaderboardStore) Get(ctx context.Context, teamID string, challenge domain.ChallengeType) (domain.LeaderboardRecord, error) {
	var rec domain.LeaderboardRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT team_id, challenge, best_score, best_submission_id, submission_count, last_submission
		FROM leaderboard
		WHERE team_id = $1 AND challenge = $2`,
		teamID, challenge)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LeaderboardRecord{}, fmt.Errorf("leaderboard record for team %s: %w", teamID, ports.ErrRecordNotFound)
	}
	if err != nil {
		return domain.LeaderboardRecord{}, fmt.Errorf("reading leaderboard record: %w", err)
	}
	return rec, nil
}

// Insert creates a new record and fails if one already exists.
func (s *PostgresLeaderboardStore) Insert(ctx context.Context, rec domain.LeaderboardRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard (team_id, challenge, best_score, best_submission_id, submission_count, last_submission)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.TeamID, rec.Challenge, rec.BestScore, rec.BestSubmissionID, rec.SubmissionCount, rec.LastSubmission)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("leaderboard record for team %s: %w", rec.TeamID, ports.ErrRecordExists)
		}
		return fmt.Errorf("inserting leaderboard record: %w", err)
	}
	return nil
}

// Update overwrites the record only when the stored submission count
// still matches expectedCount.
func (s *PostgresLeaderboardStore) Update(ctx context.Context, rec domain.LeaderboardRecord, expectedCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leaderboard
		SET best_score = $1, best_submission_id = $2, submission_count = $3, last_submission = $4
		WHERE team_id = $5 AND challenge = $6 AND submission_count = $7`,
		rec.BestScore, rec.BestSubmissionID, rec.SubmissionCount, rec.LastSubmission,
		rec.TeamID, rec.Challenge, expectedCount)
	if err != nil {
		return fmt.Errorf("updating leaderboard record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking leaderboard update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("leaderboard record for team %s: %w", rec.TeamID, ports.ErrUpdateConflict)
	}
	return nil
}

// TopN returns up to limit records ordered by best score descending,
// team id ascending on ties.
func (s *PostgresLeaderboardStore) TopN(ctx context.Context, challenge domain.ChallengeType, limit int) ([]domain.LeaderboardRecord, error) {
	ranked := []domain.LeaderboardRecord{}
	err := s.db.SelectContext(ctx, &ranked, `
		SELECT team_id, challenge, best_score, best_submission_id, submission_count, last_submission
		FROM leaderboard
		WHERE challenge = $1
		ORDER BY best_score DESC, team_id ASC
		LIMIT $2`,
		challenge, limit)
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard ranking: %w", err)
	}
	return ranked, nil
}

// PostgresEvaluationStore implements ports.EvaluationStore on Postgres.
// The per-question results are stored as a JSONB document; they are
// written once and never rewritten, matching the append-only contract.
type PostgresEvaluationStore struct {
	db *sqlx.DB
}

// NewPostgresEvaluationStore creates a store over an open connection.
func NewPostgresEvaluationStore(db *sqlx.DB) *PostgresEvaluationStore {
	return &PostgresEvaluationStore{db: db}
}

// evaluationRow is the flat row shape of the evaluations table.
type evaluationRow struct {
	ID           string               `db:"id"`
	SubmissionID string               `db:"submission_id"`
	TeamID       string               `db:"team_id"`
	Challenge    domain.ChallengeType `db:"challenge"`
	Status       string               `db:"status"`
	Scores       []byte               `db:"scores"`
	Questions    []byte               `db:"question_results"`
	Feedback     string               `db:"feedback"`
	ErrorMessage string               `db:"error_message"`
	CreatedAt    time.Time            `db:"created_at"`
	CompletedAt  sql.NullTime         `db:"completed_at"`
}

// Save inserts or replaces the evaluation for its submission.
func (s *PostgresEvaluationStore) Save(ctx context.Context, eval domain.Evaluation) error {
	scores, err := json.Marshal(eval.Scores)
	if err != nil {
		return fmt.Errorf("encoding scores: %w", err)
	}
	questions, err := json.Marshal(eval.Questions)
	if err != nil {
		return fmt.Errorf("encoding question results: %w", err)
	}

	completedAt := sql.NullTime{Time: eval.CompletedAt, Valid: !eval.CompletedAt.IsZero()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, submission_id, team_id, challenge, status, scores, question_results, feedback, error_message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (submission_id) DO UPDATE SET
			status = EXCLUDED.status,
			scores = EXCLUDED.scores,
			question_results = EXCLUDED.question_results,
			feedback = EXCLUDED.feedback,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at`,
		eval.ID, eval.SubmissionID, eval.TeamID, eval.Challenge, eval.Status,
		scores, questions, eval.Feedback, eval.ErrorMessage, eval.CreatedAt, completedAt)
	if err != nil {
		return fmt.Errorf("saving evaluation: %w", err)
	}
	return nil
}

// Get returns the evaluation for a submission.
func (s *PostgresEvaluationStore) Get(ctx context.Context, submissionID string) (domain.Evaluation, error) {
	var row evaluationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, submission_id, team_id, challenge, status, scores, question_results, feedback, error_message, created_at, completed_at
		FROM evaluations
		WHERE submission_id = $1`,
		submissionID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Evaluation{}, fmt.Errorf("evaluation for submission %s: %w", submissionID, ports.ErrRecordNotFound)
	}
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("reading evaluation: %w", err)
	}

	eval := domain.Evaluation{
		ID:           row.ID,
		SubmissionID: row.SubmissionID,
		TeamID:       row.TeamID,
		Challenge:    row.Challenge,
		Status:       domain.SubmissionStatus(row.Status),
		Feedback:     row.Feedback,
		ErrorMessage: row.ErrorMessage,
		CreatedAt:    row.CreatedAt,
	}
	if row.CompletedAt.Valid {
		eval.CompletedAt = row.CompletedAt.Time
	}
	if len(row.Scores) > 0 {
		if err := json.Unmarshal(row.Scores, &eval.Scores); err != nil {
			return domain.Evaluation{}, fmt.Errorf("decoding scores: %w", err)
		}
	}
	if len(row.Questions) > 0 {
		if err := json.Unmarshal(row.Questions, &eval.Questions); err != nil {
			return domain.Evaluation{}, fmt.Errorf("decoding question results: %w", err)
		}
	}
	return eval, nil
}

var (
	_ ports.LeaderboardStore = (*PostgresLeaderboardStore)(nil)
	_ ports.EvaluationStore  = (*PostgresEvaluationStore)(nil)
)
