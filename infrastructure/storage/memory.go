// Package storage provides the durable-store implementations of the
// leaderboard and evaluation ports: a Postgres store for deployments
// and an in-memory store for tests and single-process development runs.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/ports"
)

// MemoryLeaderboardStore is a process-local ports.LeaderboardStore.
// It honors the same conditional-write contract as the Postgres store,
// so the updater's retry loop behaves identically against either.
type MemoryLeaderboardStore struct {
	mu      sync.RWMutex
	records map[string]domain.LeaderboardRecord
}

// NewMemoryLeaderboardStore creates an empty in-memory store.
func NewMemoryLeaderboardStore() *MemoryLeaderboardStore {
	return &MemoryLeaderboardStore{records: make(map[string]domain.LeaderboardRecord)}
}

func leaderboardKey(teamID string, challenge domain.ChallengeType) string {
	return teamID + "\x00" + string(challenge)
}

// Get returns the record for (team, challenge).
func (s *MemoryLeaderboardStore) Get(ctx context.Context, teamID string, challenge domain.ChallengeType) (domain.LeaderboardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[leaderboardKey(teamID, challenge)]
	if !ok {
		return domain.LeaderboardRecord{}, fmt.Errorf("leaderboard record for team %s: %w", teamID, ports.ErrRecordNotFound)
	}
	return rec, nil
}

// Insert creates a new record and fails if one already exists.
func (s *MemoryLeaderboardStore) Insert(ctx context.Context, rec domain.LeaderboardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := leaderboardKey(rec.TeamID, rec.Challenge)
	if _, ok := s.records[key]; ok {
		return fmt.Errorf("leaderboard record for team %s: %w", rec.TeamID, ports.ErrRecordExists)
	}
	s.records[key] = rec
	return nil
}

// Update overwrites the record only when the stored submission count
// still matches expectedCount.
func (s *MemoryLeaderboardStore) Update(ctx context.Context, rec domain.LeaderboardRecord, expectedCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := leaderboardKey(rec.TeamID, rec.Challenge)
	current, ok := s.records[key]
	if !ok {
		return fmt.Errorf("leaderboard record for team %s: %w", rec.TeamID, ports.ErrRecordNotFound)
	}
	if current.SubmissionCount != expectedCount {
		return fmt.Errorf("leaderboard record for team %s: %w", rec.TeamID, ports.ErrUpdateConflict)
	}
	s.records[key] = rec
	return nil
}

// TopN returns up to limit records ordered by best score descending,
// team id ascending on ties.
func (s *MemoryLeaderboardStore) TopN(ctx context.Context, challenge domain.ChallengeType, limit int) ([]domain.LeaderboardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := make([]domain.LeaderboardRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Challenge == challenge {
			ranked = append(ranked, rec)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].BestScore != ranked[j].BestScore {
			return ranked[i].BestScore > ranked[j].BestScore
		}
		return ranked[i].TeamID < ranked[j].TeamID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// MemoryEvaluationStore is a process-local ports.EvaluationStore.
type MemoryEvaluationStore struct {
	mu    sync.RWMutex
	evals map[string]domain.Evaluation
}

// NewMemoryEvaluationStore creates an empty in-memory store.
func NewMemoryEvaluationStore() *MemoryEvaluationStore {
	return &MemoryEvaluationStore{evals: make(map[string]domain.Evaluation)}
}

// Save inserts or replaces the evaluation for its submission.
func (s *MemoryEvaluationStore) Save(ctx context.Context, eval domain.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals[eval.SubmissionID] = eval
	return nil
}

// Get returns the evaluation for a submission.
func (s *MemoryEvaluationStore) Get(ctx context.Context, submissionID string) (domain.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eval, ok := s.evals[submissionID]
	if !ok {
		return domain.Evaluation{}, fmt.Errorf("evaluation for submission %s: %w", submissionID, ports.ErrRecordNotFound)
	}
	return eval, nil
}
