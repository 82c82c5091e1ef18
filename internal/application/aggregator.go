package application

import (
	"fmt"

	"github.com/ragarena/arena/internal/domain"
)

// CombineRule selects how public and private means combine into the
// submission's overall score. The two deployed rule variants disagree
// materially and change ranking, so the rule is always explicit
// configuration and never hard-coded.
type CombineRule string

const (
	// CombineBest takes the maximum of the public and private means,
	// rewarding a team's best partition.
	CombineBest CombineRule = "best"

	// CombineFlat averages the overall score across every result
	// regardless of partition.
	CombineFlat CombineRule = "flat"
)

// Valid reports whether the combine rule is a known variant.
func (r CombineRule) Valid() bool { return r == CombineBest || r == CombineFlat }

// AggregatorConfig defines the aggregation parameters.
type AggregatorConfig struct {
	// CombineRule selects the overall-score combination, best or flat.
	CombineRule CombineRule `yaml:"combine_rule" json:"combine_rule" validate:"required,oneof=best flat"`
}

// DefaultAggregatorConfig returns the shipped aggregation configuration.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{CombineRule: CombineBest}
}

// Aggregator rolls a submission's per-question results into its summary
// scores. It is pure and order-independent: the same result set yields
// the same summary regardless of result ordering, so summaries can be
// recomputed from stored results at any time.
type Aggregator struct {
	config AggregatorConfig
}

// NewAggregator creates an aggregator with a validated configuration.
func NewAggregator(config AggregatorConfig) (*Aggregator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("aggregator configuration validation failed: %w", err)
	}
	return &Aggregator{config: config}, nil
}

// Aggregate computes the submission summary from the per-question
// results and the challenge's public/private question partition.
// Results whose ids fall outside both partitions are excluded from the
// public and private means but still count toward the component
// rollups. An empty result list yields an all-zero summary.
func (a *Aggregator) Aggregate(results []domain.QuestionResult, public, private map[string]struct{}) domain.SubmissionScores {
	if len(results) == 0 {
		return domain.SubmissionScores{}
	}

	var (
		publicSum, privateSum, allSum          float64
		publicN, privateN                      int
		retrievalSum, faithfulSum, reasoningSum float64
	)

	for _, r := range results {
		allSum += r.OverallScore
		if _, ok := public[r.QuestionID]; ok {
			publicSum += r.OverallScore
			publicN++
		} else if _, ok := private[r.QuestionID]; ok {
			privateSum += r.OverallScore
			privateN++
		}

		retrievalSum += r.Component(domain.ScoreRetrieval)
		faithfulSum += r.Component(domain.ScoreFaithfulness)
		// The legal rubric scores answer correctness where factcheck
		// scores reasoning; both feed the same rollup so the summary
		// shape is identical across challenges.
		if score, ok := r.ComponentScores[domain.ScoreReasoning]; ok {
			reasoningSum += score
		} else {
			reasoningSum += r.Component(domain.ScoreCorrectness)
		}
	}

	scores := domain.SubmissionScores{
		Public:       mean(publicSum, publicN),
		Private:      mean(privateSum, privateN),
		Retrieval:    mean(retrievalSum, len(results)),
		Faithfulness: mean(faithfulSum, len(results)),
		Reasoning:    mean(reasoningSum, len(results)),
	}

	switch a.config.CombineRule {
	case CombineFlat:
		scores.Overall = mean(allSum, len(results))
	default:
		scores.Overall = max(scores.Public, scores.Private)
	}
	return scores
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
