package judges

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragarena/arena/internal/domain"
)

// stubLLM implements ports.LLMClient for judge tests.
type stubLLM struct {
	model    string
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubLLM) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }

func (s *stubLLM) GetModel() string { return s.model }

func TestNewJudge(t *testing.T) {
	tests := []struct {
		name      string
		judgeName string
		config    Config
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid default configuration",
			judgeName: "factcheck-judge",
			config:    DefaultConfig(),
		},
		{
			name:      "strict profile",
			judgeName: "factcheck-judge",
			config:    Config{Strictness: StrictnessStrict, Temperature: 0.0, MaxTokens: 256},
		},
		{
			name:      "empty judge name",
			judgeName: "",
			config:    DefaultConfig(),
			wantError: true,
			errorMsg:  "judge name cannot be empty",
		},
		{
			name:      "unknown strictness",
			judgeName: "factcheck-judge",
			config:    Config{Strictness: "vibes", Temperature: 0.1, MaxTokens: 256},
			wantError: true,
			errorMsg:  "validation failed",
		},
		{
			name:      "max tokens out of range",
			judgeName: "factcheck-judge",
			config:    Config{Strictness: StrictnessFair, Temperature: 0.1, MaxTokens: 10},
			wantError: true,
			errorMsg:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge, err := NewFactCheckJudge(tt.judgeName, nil, nil, tt.config)
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, judge)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.judgeName, judge.Name())
			assert.Equal(t, domain.ChallengeFactCheck, judge.Challenge())
		})
	}
}

func TestJudge_Grade_FallbackWithoutClient(t *testing.T) {
	judge, err := NewFactCheckJudge("fc", nil, nil, DefaultConfig())
	require.NoError(t, err)

	resp := domain.AgentResponse{
		ThoughtProcess: "The wall is far too narrow; calling it visible from the Moon is a debunked myth.",
		RetrievedContextIDs: []string{
			"wiki_great_wall",
		},
		FinalAnswer: "False",
		Citation:    "wiki_great_wall: the wall is not visible to the naked eye from lunar distance",
	}

	result := judge.Grade(context.Background(), greatWallGolden(), resp)

	require.Empty(t, result.Err)
	assert.Equal(t, "fc_test_3", result.QuestionID)
	assert.Contains(t, result.Feedback, "deterministic rules")

	assert.Equal(t, 10.0, result.Component(domain.ScoreRetrieval))
	assert.Equal(t, 10.0, result.Component(domain.ScoreVerdict))
	assert.Equal(t, 8.0, result.Component(domain.ScoreFaithfulness))
	assert.Equal(t, 8.0, result.Component(domain.ScoreReasoning))
	// retrieval*0.25 + verdict*0.35 + faithfulness*0.25 + reasoning*0.15
	assert.InDelta(t, 9.2, result.OverallScore, 1e-9)
}

func TestJudge_Grade_LLMPath(t *testing.T) {
	tests := []struct {
		name         string
		llm          *stubLLM
		wantFallback bool
		wantOverall  float64
		wantFeedback string
	}{
		{
			name: "valid grading payload",
			llm: &stubLLM{
				model:    "gpt-4o-mini",
				response: `{"verdict_score": 8, "faithfulness_score": 7, "reasoning_score": 9, "feedback": "solid analysis"}`,
			},
			wantOverall:  8.4,
			wantFeedback: "solid analysis",
		},
		{
			name: "payload wrapped in a code fence",
			llm: &stubLLM{
				model: "claude-3-haiku",
				response: "Here is my grading:\n```json\n" +
					`{"verdict_score": 8, "faithfulness_score": 7, "reasoning_score": 9, "feedback": "solid analysis"}` +
					"\n```",
			},
			wantOverall:  8.4,
			wantFeedback: "solid analysis",
		},
		{
			name: "out-of-range scores are clamped",
			llm: &stubLLM{
				model:    "gpt-4o-mini",
				response: `{"verdict_score": 15, "faithfulness_score": -3, "reasoning_score": 10, "feedback": "x"}`,
			},
			// retrieval 10*0.25 + verdict 10*0.35 + faithfulness 0*0.25 + reasoning 10*0.15
			wantOverall:  7.5,
			wantFeedback: "x",
		},
		{
			name:         "transport error degrades to fallback",
			llm:          &stubLLM{model: "gpt-4o-mini", err: errors.New("connection refused")},
			wantFallback: true,
		},
		{
			name:         "malformed JSON degrades to fallback",
			llm:          &stubLLM{model: "gpt-4o-mini", response: "I think this deserves an 8 out of 10."},
			wantFallback: true,
		},
		{
			name:         "missing rubric dimension degrades to fallback",
			llm:          &stubLLM{model: "gpt-4o-mini", response: `{"verdict_score": 8, "feedback": "partial"}`},
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge, err := NewFactCheckJudge("fc", tt.llm, nil, DefaultConfig())
			require.NoError(t, err)

			resp := domain.AgentResponse{
				ThoughtProcess:      "Reasoning text long enough to pass the thin-thought threshold easily here.",
				RetrievedContextIDs: []string{"wiki_great_wall"},
				FinalAnswer:         "False",
				Citation:            "wiki_great_wall article, visibility section, paragraph two",
			}
			result := judge.Grade(context.Background(), greatWallGolden(), resp)

			require.Empty(t, result.Err)
			assert.Equal(t, 1, tt.llm.calls)
			if tt.wantFallback {
				assert.Contains(t, result.Feedback, "deterministic rules")
			} else {
				assert.Equal(t, tt.wantFeedback, result.Feedback)
				assert.InDelta(t, tt.wantOverall, result.OverallScore, 1e-9)
			}
			for dim, score := range result.ComponentScores {
				assert.GreaterOrEqual(t, score, MinScore, "dimension %s", dim)
				assert.LessOrEqual(t, score, MaxScore, "dimension %s", dim)
			}
		})
	}
}

func TestJudge_Grade_LegalWeights(t *testing.T) {
	llm := &stubLLM{
		model: "gpt-4o-mini",
		response: `{"correctness_score": 9, "faithfulness_score": 8, "conflict_score": 10,` +
			` "citation_score": 7, "feedback": "found the clause conflict"}`,
	}
	judge, err := NewLegalJudge("legal", llm, nil, DefaultConfig())
	require.NoError(t, err)

	resp := domain.AgentResponse{
		RetrievedContextIDs: []string{"clause_B_2"},
		FinalAnswer:         "It depends on the location.",
	}
	result := judge.Grade(context.Background(), zoneBGolden(), resp)

	require.Empty(t, result.Err)
	// retrieval covers 1 of 2 clauses = 5.0
	assert.InDelta(t, 5.0, result.Component(domain.ScoreRetrieval), 1e-9)
	// 5*0.25 + 9*0.30 + 8*0.20 + 10*0.15 + 7*0.10
	assert.InDelta(t, 7.75, result.OverallScore, 1e-9)
}

func TestJudge_Grade_EmptyResponseNeverFails(t *testing.T) {
	for _, newJudgeFn := range []func(string) (*Judge, error){
		func(name string) (*Judge, error) { return NewFactCheckJudge(name, nil, nil, DefaultConfig()) },
		func(name string) (*Judge, error) { return NewLegalJudge(name, nil, nil, DefaultConfig()) },
	} {
		judge, err := newJudgeFn("judge")
		require.NoError(t, err)

		golden := greatWallGolden()
		if judge.Challenge() == domain.ChallengeLegal {
			golden = zoneBGolden()
		}

		result := judge.Grade(context.Background(), golden, domain.AgentResponse{})
		assert.Empty(t, result.Err)
		assert.GreaterOrEqual(t, result.OverallScore, MinScore)
		assert.LessOrEqual(t, result.OverallScore, MaxScore)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"verdict_score": 10}`,
			want:     `{"verdict_score": 10}`,
		},
		{
			name:     "object with surrounding prose",
			response: `Sure! {"verdict_score": 10} Hope that helps.`,
			want:     `{"verdict_score": 10}`,
		},
		{
			name:     "json code fence",
			response: "```json\n{\"verdict_score\": 10}\n```",
			want:     `{"verdict_score": 10}`,
		},
		{
			name:     "braces inside strings",
			response: `{"feedback": "uses {braces} and \"quotes\"", "verdict_score": 5}`,
			want:     `{"feedback": "uses {braces} and \"quotes\"", "verdict_score": 5}`,
		},
		{
			name:     "no json at all",
			response: "I cannot grade this.",
			want:     "",
		},
		{
			name:     "unbalanced braces",
			response: `{"verdict_score": 10`,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.response))
		})
	}
}
