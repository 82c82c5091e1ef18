// Package leaderboard folds per-submission scores into the durable
// best-score-per-team ranking. The updater owns every mutation of a
// leaderboard record; all writes go through its atomic
// read-modify-write loop so the best score never regresses, including
// under concurrent submissions.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/ports"
)

// maxRetries bounds the optimistic-concurrency retry loop. Conflicts
// only arise from same-team concurrent submissions, so contention stays
// low and a handful of retries is plenty.
const maxRetries = 10

// Updater applies submission scores to leaderboard records.
type Updater struct {
	store  ports.LeaderboardStore
	logger *zap.Logger
	now    func() time.Time
}

// NewUpdater creates an updater backed by the given store. logger may
// be nil.
func NewUpdater(store ports.LeaderboardStore, logger *zap.Logger) (*Updater, error) {
	if store == nil {
		return nil, errors.New("leaderboard store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{store: store, logger: logger, now: time.Now}, nil
}

// Update merges one submission's score into the (team, challenge)
// record and returns the record as written. The best score only moves
// up; the best submission id changes only when the score is a new
// maximum; the submission count and timestamp advance on every call.
//
// Concurrent calls for the same record are safe: a conflicting write
// re-reads and retries, so every submission is counted exactly once.
func (u *Updater) Update(ctx context.Context, teamID string, challenge domain.ChallengeType, score float64, submissionID string) (domain.LeaderboardRecord, error) {
	if teamID == "" {
		return domain.LeaderboardRecord{}, domain.ErrEmptyTeamID
	}
	if !challenge.Valid() {
		return domain.LeaderboardRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownChallenge, challenge)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.LeaderboardRecord{}, err
		}

		current, err := u.store.Get(ctx, teamID, challenge)
		switch {
		case errors.Is(err, ports.ErrRecordNotFound):
			rec := domain.LeaderboardRecord{
				TeamID:           teamID,
				Challenge:        challenge,
				BestScore:        score,
				BestSubmissionID: submissionID,
				SubmissionCount:  1,
				LastSubmission:   u.now().UTC(),
			}
			if err := u.store.Insert(ctx, rec); err != nil {
				if errors.Is(err, ports.ErrRecordExists) {
					// Another submission created the record first.
					continue
				}
				return domain.LeaderboardRecord{}, fmt.Errorf("inserting leaderboard record: %w", err)
			}
			return rec, nil

		case err != nil:
			return domain.LeaderboardRecord{}, fmt.Errorf("reading leaderboard record: %w", err)
		}

		next := current
		next.SubmissionCount++
		next.LastSubmission = u.now().UTC()
		if score > current.BestScore {
			next.BestScore = score
			next.BestSubmissionID = submissionID
		}

		if err := u.store.Update(ctx, next, current.SubmissionCount); err != nil {
			if errors.Is(err, ports.ErrUpdateConflict) {
				u.logger.Debug("leaderboard update conflict, retrying",
					zap.String("team_id", teamID),
					zap.String("challenge", string(challenge)),
					zap.Int("attempt", attempt+1))
				continue
			}
			return domain.LeaderboardRecord{}, fmt.Errorf("updating leaderboard record: %w", err)
		}
		return next, nil
	}

	return domain.LeaderboardRecord{}, fmt.Errorf("leaderboard update for team %s gave up after %d conflicts", teamID, maxRetries)
}

// TopN returns the challenge's current ranking, best score descending
// with team id as the stable tie-break.
func (u *Updater) TopN(ctx context.Context, challenge domain.ChallengeType, limit int) ([]domain.LeaderboardRecord, error) {
	if !challenge.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChallenge, challenge)
	}
	return u.store.TopN(ctx, challenge, limit)
}
