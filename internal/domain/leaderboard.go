package domain

import "time"

// LeaderboardRecord is the durable best-score-so-far entry for one team
// within one challenge. There is exactly one record per (team, challenge)
// pair, and BestScore is non-decreasing over the record's lifetime.
// Only the leaderboard updater mutates records.
type LeaderboardRecord struct {
	// TeamID identifies the team.
	TeamID string `json:"team_id" db:"team_id"`

	// Challenge identifies the challenge this record ranks.
	Challenge ChallengeType `json:"challenge" db:"challenge"`

	// BestScore is the highest submission score the team has achieved.
	BestScore float64 `json:"best_score" db:"best_score"`

	// BestSubmissionID is the submission that set BestScore.
	BestSubmissionID string `json:"best_submission_id" db:"best_submission_id"`

	// SubmissionCount counts every evaluated submission, improving or not.
	SubmissionCount int `json:"submission_count" db:"submission_count"`

	// LastSubmission is advanced on every update regardless of score.
	LastSubmission time.Time `json:"last_submission" db:"last_submission"`
}
