package judges

// Strictness selects the grading profile. Two profiles exist for the
// same rubric dimensions: a lenient one that credits reasonable attempts
// and a demanding one that reserves high scores for precise work. Which
// profile is authoritative is a deployment decision, so it is always an
// explicit configuration parameter and never hard-coded.
type Strictness string

const (
	// StrictnessFair grades generously: solid attempts land around 7-8.
	StrictnessFair Strictness = "fair"

	// StrictnessStrict grades harshly: only precise, well-cited work
	// scores above the midpoint.
	StrictnessStrict Strictness = "strict"
)

// Valid reports whether the strictness value is a known profile.
func (s Strictness) Valid() bool { return s == StrictnessFair || s == StrictnessStrict }

// factcheckThresholds are the fixed constants of the deterministic
// factcheck grader for one strictness profile.
type factcheckThresholds struct {
	// Verdict scores by match quality against the expected verdict.
	VerdictExact   float64 // identical after case folding
	VerdictClose   float64 // substring or fuzzy match
	VerdictPartial float64 // the answer hedges with "partial"
	VerdictAttempt float64 // any non-empty answer

	// VerdictSimilarity is the minimum Levenshtein similarity treated as
	// a close match ("false." versus "False").
	VerdictSimilarity float64

	// Faithfulness scores by citation length as a grounding proxy.
	FaithLongLen  int
	FaithShortLen int
	FaithLong     float64
	FaithShort    float64
	FaithAny      float64
	FaithBase     float64 // no citation at all

	// Reasoning scores by key-point coverage of the thought process.
	ReasonMinThought int     // minimum thought length to inspect key points
	ReasonStrongFrac float64 // key-point fraction for the strong score
	ReasonStrong     float64
	ReasonSome       float64 // at least one key point mentioned
	ReasonBase       float64 // substantial thought, no key points found
	ReasonThin       float64 // short but non-empty thought
	ReasonNone       float64 // no thought process at all
}

// legalThresholds are the fixed constants of the deterministic legal
// grader for one strictness profile.
type legalThresholds struct {
	// Correctness scores by key-reasoning coverage of the final answer.
	CorrectHighFrac float64
	CorrectHigh     float64
	CorrectMidFrac  float64
	CorrectMid      float64
	CorrectLowFrac  float64
	CorrectLow      float64
	CorrectAttempt  float64 // any non-empty answer

	// Conflict scores for questions whose golden clauses conflict.
	ConflictFound   float64 // answer acknowledges the conflict
	ConflictMissed  float64 // answer oversimplifies
	ConflictAbsent  float64 // no conflict expected for this question
	// Citation scores by expected-clause coverage of the retrieved set.
	CitationHit  float64 // at least one expected clause retrieved
	CitationAny  float64 // citation text present but no clause match
	CitationNone float64

	// Faithfulness scores by citation length as a grounding proxy.
	FaithLongLen int
	FaithLong    float64
	FaithAny     float64
	FaithBase    float64
}

// profile bundles the deterministic thresholds and the prompt tone for
// one strictness setting.
type profile struct {
	FactCheck factcheckThresholds
	Legal     legalThresholds

	// PromptTone opens the rubric prompt and sets the grader's posture.
	PromptTone string

	// PromptGuidance closes the criteria section with the score anchoring
	// instruction for this profile.
	PromptGuidance string
}

// profiles holds the two observed grading variants. The constants of the
// fair profile reproduce the competition's lenient rule-based grader;
// the strict profile shifts every band down to demand precision.
var profiles = map[Strictness]profile{
	StrictnessFair: {
		FactCheck: factcheckThresholds{
			VerdictExact:      10,
			VerdictClose:      8,
			VerdictPartial:    6,
			VerdictAttempt:    3,
			VerdictSimilarity: 0.8,
			FaithLongLen:      50,
			FaithShortLen:     20,
			FaithLong:         8,
			FaithShort:        7,
			FaithAny:          6,
			FaithBase:         6,
			ReasonMinThought:  50,
			ReasonStrongFrac:  0.5,
			ReasonStrong:      8,
			ReasonSome:        7,
			ReasonBase:        6,
			ReasonThin:        5,
			ReasonNone:        6,
		},
		Legal: legalThresholds{
			CorrectHighFrac: 0.6,
			CorrectHigh:     9,
			CorrectMidFrac:  0.4,
			CorrectMid:      8,
			CorrectLowFrac:  0.2,
			CorrectLow:      7,
			CorrectAttempt:  5,
			ConflictFound:   8,
			ConflictMissed:  5,
			ConflictAbsent:  8,
			CitationHit:     8,
			CitationAny:     6,
			CitationNone:    6,
			FaithLongLen:    20,
			FaithLong:       8,
			FaithAny:        7,
			FaithBase:       6,
		},
		PromptTone: "You are a FAIR and BALANCED judge. " +
			"Give credit for correct work and reasonable attempts. High scores (8+) for solid work.",
		PromptGuidance: "IMPORTANT: Be generous - average scores should be around 7-8 for decent attempts.",
	},
	StrictnessStrict: {
		FactCheck: factcheckThresholds{
			VerdictExact:      10,
			VerdictClose:      6,
			VerdictPartial:    3,
			VerdictAttempt:    1,
			VerdictSimilarity: 0.9,
			FaithLongLen:      80,
			FaithShortLen:     30,
			FaithLong:         7,
			FaithShort:        5,
			FaithAny:          4,
			FaithBase:         2,
			ReasonMinThought:  100,
			ReasonStrongFrac:  0.75,
			ReasonStrong:      8,
			ReasonSome:        5,
			ReasonBase:        3,
			ReasonThin:        2,
			ReasonNone:        0,
		},
		Legal: legalThresholds{
			CorrectHighFrac: 0.8,
			CorrectHigh:     9,
			CorrectMidFrac:  0.6,
			CorrectMid:      7,
			CorrectLowFrac:  0.3,
			CorrectLow:      5,
			CorrectAttempt:  2,
			ConflictFound:   7,
			ConflictMissed:  2,
			ConflictAbsent:  6,
			CitationHit:     7,
			CitationAny:     4,
			CitationNone:    2,
			FaithLongLen:    50,
			FaithLong:       7,
			FaithAny:        4,
			FaithBase:       2,
		},
		PromptTone: "You are a STRICT and DEMANDING judge. " +
			"Reserve high scores (8+) for precise, fully supported work; penalize vagueness and missing citations.",
		PromptGuidance: "IMPORTANT: Be demanding - only rigorous, well-cited answers deserve scores above 5.",
	},
}
