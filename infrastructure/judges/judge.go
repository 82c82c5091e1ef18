package judges

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ragarena/arena/internal/domain"
	"github.com/ragarena/arena/internal/ports"
)

// rubric defines one challenge's grading scheme: the dimension keys the
// LLM (or fallback) must score, the fixed weight of each component in
// the overall score, and the challenge-specific retrieval policy.
type rubric struct {
	challenge  domain.ChallengeType
	dimensions []string
	// weights covers every dimension plus domain.ScoreRetrieval and
	// sums to 1.0. The weighted sum is the canonical overall score.
	weights    map[string]float64
	retrieval  func(retrieved, expected []string) float64
	fallback   func(domain.AgentResponse, domain.GoldenAnswer, profile) map[string]float64
	promptText string
}

var factcheckRubric = rubric{
	challenge:  domain.ChallengeFactCheck,
	dimensions: []string{domain.ScoreVerdict, domain.ScoreFaithfulness, domain.ScoreReasoning},
	weights: map[string]float64{
		domain.ScoreRetrieval:    0.25,
		domain.ScoreVerdict:      0.35,
		domain.ScoreFaithfulness: 0.25,
		domain.ScoreReasoning:    0.15,
	},
	retrieval:  HitScore,
	fallback:   fallbackFactCheck,
	promptText: factcheckPromptTemplate,
}

var legalRubric = rubric{
	challenge: domain.ChallengeLegal,
	dimensions: []string{
		domain.ScoreCorrectness, domain.ScoreFaithfulness,
		domain.ScoreConflict, domain.ScoreCitation,
	},
	weights: map[string]float64{
		domain.ScoreRetrieval:    0.25,
		domain.ScoreCorrectness:  0.30,
		domain.ScoreFaithfulness: 0.20,
		domain.ScoreConflict:     0.15,
		domain.ScoreCitation:     0.10,
	},
	retrieval:  CoverageScore,
	fallback:   fallbackLegal,
	promptText: legalPromptTemplate,
}

// Config defines the judge's tunable parameters. Strictness is explicit
// because the fair and strict grading variants disagree materially and
// the authoritative profile is a deployment decision.
type Config struct {
	// Strictness selects the grading profile, fair or strict.
	Strictness Strictness `yaml:"strictness" json:"strictness" validate:"required,oneof=fair strict"`

	// Temperature controls randomness in the LLM grading call.
	// Low values keep scoring consistent across submissions.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens bounds the length of the LLM's grading response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=2000"`
}

// DefaultConfig returns the competition's shipped judge configuration.
func DefaultConfig() Config {
	return Config{
		Strictness:  StrictnessFair,
		Temperature: 0.1,
		MaxTokens:   512,
	}
}

// Judge grades agent responses for one challenge. Both challenge
// variants share this type and its attempt-LLM-then-fallback flow; they
// differ only in their rubric.
//
// The judge is stateless and safe for concurrent use. Its public
// contract is "never fails": Grade always returns a QuestionResult.
type Judge struct {
	// name is the unique identifier for this judge instance.
	name string
	// rubric is the challenge-specific grading scheme.
	rubric rubric
	// profile holds the strictness thresholds and prompt tone.
	profile profile
	// config contains the validated configuration parameters.
	config Config
	// llm is the optional rubric grader. Nil means every question is
	// graded by the deterministic fallback.
	llm ports.LLMClient
	// metrics records fallback degradations. May be nil.
	metrics ports.MetricsCollector
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
	// promptTmpl is the compiled rubric prompt for safe substitution of
	// untrusted agent output.
	promptTmpl *template.Template
}

// NewFactCheckJudge creates the judge for the fact-verification
// challenge. llm may be nil to run fallback-only; metrics may be nil.
func NewFactCheckJudge(name string, llm ports.LLMClient, metrics ports.MetricsCollector, config Config) (*Judge, error) {
	return newJudge(name, factcheckRubric, llm, metrics, config)
}

// NewLegalJudge creates the judge for the legal-clause-reasoning
// challenge. llm may be nil to run fallback-only; metrics may be nil.
func NewLegalJudge(name string, llm ports.LLMClient, metrics ports.MetricsCollector, config Config) (*Judge, error) {
	return newJudge(name, legalRubric, llm, metrics, config)
}

func newJudge(name string, r rubric, llm ports.LLMClient, metrics ports.MetricsCollector, config Config) (*Judge, error) {
	if name == "" {
		return nil, ErrEmptyJudgeName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	tmpl, err := template.New(string(r.challenge) + "_rubric").Parse(r.promptText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rubric prompt template: %w", err)
	}

	return &Judge{
		name:       name,
		rubric:     r,
		profile:    profiles[config.Strictness],
		config:     config,
		llm:        llm,
		metrics:    metrics,
		tracer:     otel.Tracer("response-judge"),
		promptTmpl: tmpl,
	}, nil
}

// Name returns the unique identifier for this judge instance.
func (j *Judge) Name() string { return j.name }

// Challenge returns the challenge this judge grades.
func (j *Judge) Challenge() domain.ChallengeType { return j.rubric.challenge }

// Grade evaluates one agent response against one golden answer and
// returns the per-question result. It never returns an error and never
// panics outward: transport failures, malformed LLM output, and internal
// bugs all degrade, ultimately to a zero-scored result with Err set.
func (j *Judge) Grade(ctx context.Context, golden domain.GoldenAnswer, resp domain.AgentResponse) (result domain.QuestionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.ErrorResult(golden.QuestionID, fmt.Sprintf("internal judge error: %v", r))
		}
	}()

	ctx, span := j.tracer.Start(ctx, "Judge.Grade",
		trace.WithAttributes(
			attribute.String("judge.id", j.name),
			attribute.String("judge.challenge", string(j.rubric.challenge)),
			attribute.String("judge.strictness", string(j.config.Strictness)),
			attribute.String("question.id", golden.QuestionID),
		),
	)
	defer span.End()

	resp.Normalize()

	components := map[string]float64{
		domain.ScoreRetrieval: j.rubric.retrieval(resp.RetrievedContextIDs, golden.ExpectedRefs),
	}

	scores, feedback, fellBack := j.grade(ctx, golden, resp)
	for _, dim := range j.rubric.dimensions {
		components[dim] = clampScore(scores[dim])
	}

	var overall float64
	for key, weight := range j.rubric.weights {
		overall += components[key] * weight
	}
	overall = clampScore(overall)

	span.SetAttributes(
		attribute.Float64("eval.score", overall),
		attribute.Bool("eval.fallback", fellBack),
	)
	if fellBack && j.metrics != nil {
		j.metrics.RecordCounter("judge_fallback_total", 1,
			map[string]string{"challenge": string(j.rubric.challenge)})
	}

	return domain.QuestionResult{
		QuestionID:      golden.QuestionID,
		ComponentScores: components,
		OverallScore:    overall,
		Feedback:        feedback,
	}
}

// grade runs the two-stage attempt: LLM first, deterministic rules on
// any failure. The bool reports whether the fallback produced the scores.
func (j *Judge) grade(ctx context.Context, golden domain.GoldenAnswer, resp domain.AgentResponse) (map[string]float64, string, bool) {
	if j.llm == nil {
		return j.rubric.fallback(resp, golden, j.profile),
			"Evaluated using deterministic rules (LLM judge not configured)", true
	}

	scores, feedback, err := j.gradeLLM(ctx, golden, resp)
	if err != nil {
		return j.rubric.fallback(resp, golden, j.profile),
			fmt.Sprintf("Evaluated using deterministic rules (LLM error: %s)", truncate(err.Error(), 80)), true
	}
	return scores, feedback, false
}

// gradeLLM builds the rubric prompt, calls the LLM, and parses its JSON
// grading payload. Any error here sends the caller to the fallback.
func (j *Judge) gradeLLM(ctx context.Context, golden domain.GoldenAnswer, resp domain.AgentResponse) (map[string]float64, string, error) {
	var promptBuf bytes.Buffer
	data := promptData{
		Tone:           j.profile.PromptTone,
		Guidance:       j.profile.PromptGuidance,
		Prompt:         golden.Prompt,
		Expected:       golden.Expected,
		KeyPoints:      strings.Join(golden.KeyPoints, ", "),
		ExpectedRefs:   strings.Join(golden.ExpectedRefs, ", "),
		ThoughtProcess: orDefault(resp.ThoughtProcess, "Not provided"),
		Retrieved:      strings.Join(resp.RetrievedContextIDs, ", "),
		FinalAnswer:    orDefault(resp.FinalAnswer, "Not provided"),
		Citation:       orDefault(resp.Citation, "Not provided"),
	}
	if err := j.promptTmpl.Execute(&promptBuf, data); err != nil {
		return nil, "", fmt.Errorf("executing rubric prompt template: %w", err)
	}

	options := map[string]any{
		"temperature": j.config.Temperature,
		"max_tokens":  j.config.MaxTokens,
		"system":      systemPrompt,
	}
	if supportsJSONMode(j.llm) {
		options["response_format"] = map[string]string{"type": "json_object"}
	}

	response, err := j.llm.Complete(ctx, promptBuf.String(), options)
	if err != nil {
		return nil, "", fmt.Errorf("LLM grading call failed: %w", err)
	}

	return j.parseGrading(response)
}

// parseGrading extracts the rubric dimension scores and feedback from
// the LLM's response text.
func (j *Judge) parseGrading(response string) (map[string]float64, string, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, "", fmt.Errorf("%w (response length: %d chars)", ErrNoJSONFound, len(response))
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, "", fmt.Errorf("parsing LLM grading JSON: %w", err)
	}

	scores := make(map[string]float64, len(j.rubric.dimensions))
	for _, dim := range j.rubric.dimensions {
		v, ok := raw[dim].(float64)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingDimension, dim)
		}
		scores[dim] = clampScore(v)
	}

	feedback, _ := raw["feedback"].(string)
	return scores, feedback, nil
}

// supportsJSONMode checks if the LLM client supports structured JSON
// output. A model-name heuristic keeps the LLMClient interface minimal.
func supportsJSONMode(client ports.LLMClient) bool {
	model := strings.ToLower(client.GetModel())
	return strings.Contains(model, "gpt") || strings.Contains(model, "claude")
}

// extractJSON attempts to extract a JSON object from a response that may
// wrap it in markdown code fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Scan for the matching closing brace, skipping braces inside strings.
	braceCount := 0
	inString := false
	escapeNext := false
	for i := start; i < len(response); i++ {
		char := response[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch {
		case char == '\\':
			escapeNext = true
		case char == '"':
			inString = !inString
		case !inString && char == '{':
			braceCount++
		case !inString && char == '}':
			braceCount--
			if braceCount == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
