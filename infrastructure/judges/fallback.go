package judges

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ragarena/arena/internal/domain"
)

// Rule-based graders used when the LLM judge is unavailable. Both are
// pure functions of their inputs: no clock, no randomness, no I/O, so
// identical inputs always grade identically.

// conflictWords are the hedging terms whose presence signals that a
// legal answer acknowledged a clause conflict.
var conflictWords = []string{
	"however", "exception", "conflict", "depends", "but",
	"unless", "notwithstanding", "although", "while",
}

// fallbackFactCheck grades a factcheck response with the deterministic
// heuristics of the given profile: verdict string matching, citation
// length as a faithfulness proxy, and key-point coverage of the thought
// process as a reasoning proxy.
func fallbackFactCheck(resp domain.AgentResponse, golden domain.GoldenAnswer, p profile) map[string]float64 {
	t := p.FactCheck
	scores := map[string]float64{
		domain.ScoreVerdict:      MinScore,
		domain.ScoreFaithfulness: t.FaithBase,
		domain.ScoreReasoning:    t.ReasonNone,
	}

	verdict := strings.TrimSpace(foldCaser.String(resp.FinalAnswer))
	expected := strings.TrimSpace(foldCaser.String(golden.Expected))
	switch {
	case verdict == "":
		// Stays at zero: no answer is never rewarded.
	case verdict == expected:
		scores[domain.ScoreVerdict] = t.VerdictExact
	case strings.Contains(verdict, expected) || strings.Contains(expected, verdict) ||
		verdictSimilarity(verdict, expected) >= t.VerdictSimilarity:
		scores[domain.ScoreVerdict] = t.VerdictClose
	case strings.Contains(verdict, "partial"):
		scores[domain.ScoreVerdict] = t.VerdictPartial
	default:
		scores[domain.ScoreVerdict] = t.VerdictAttempt
	}

	switch citation := resp.Citation; {
	case len(citation) > t.FaithLongLen:
		scores[domain.ScoreFaithfulness] = t.FaithLong
	case len(citation) > t.FaithShortLen:
		scores[domain.ScoreFaithfulness] = t.FaithShort
	case citation != "":
		scores[domain.ScoreFaithfulness] = t.FaithAny
	}

	thought := resp.ThoughtProcess
	if len(thought) > t.ReasonMinThought {
		hits := keywordHits(golden.KeyPoints, thought)
		switch {
		case len(golden.KeyPoints) > 0 && float64(hits) >= float64(len(golden.KeyPoints))*t.ReasonStrongFrac:
			scores[domain.ScoreReasoning] = t.ReasonStrong
		case hits >= 1:
			scores[domain.ScoreReasoning] = t.ReasonSome
		default:
			scores[domain.ScoreReasoning] = t.ReasonBase
		}
	} else if thought != "" {
		scores[domain.ScoreReasoning] = t.ReasonThin
	}

	return scores
}

// fallbackLegal grades a legal response with the deterministic heuristics
// of the given profile: key-reasoning coverage of the final answer,
// conflict-word detection for questions with conflicting clauses, and
// clause-id overlap for citation accuracy.
func fallbackLegal(resp domain.AgentResponse, golden domain.GoldenAnswer, p profile) map[string]float64 {
	t := p.Legal
	scores := map[string]float64{
		domain.ScoreCorrectness:  MinScore,
		domain.ScoreFaithfulness: t.FaithBase,
		domain.ScoreConflict:     t.ConflictAbsent,
		domain.ScoreCitation:     t.CitationNone,
	}

	answer := foldCaser.String(resp.FinalAnswer)
	if answer != "" {
		hits := keywordHits(golden.KeyPoints, answer)
		total := float64(len(golden.KeyPoints))
		switch {
		case total > 0 && float64(hits) >= total*t.CorrectHighFrac:
			scores[domain.ScoreCorrectness] = t.CorrectHigh
		case total > 0 && float64(hits) >= total*t.CorrectMidFrac:
			scores[domain.ScoreCorrectness] = t.CorrectMid
		case total > 0 && float64(hits) >= total*t.CorrectLowFrac:
			scores[domain.ScoreCorrectness] = t.CorrectLow
		default:
			scores[domain.ScoreCorrectness] = t.CorrectAttempt
		}
	}

	if expectsConflict(golden.ExpectedRefs) {
		scores[domain.ScoreConflict] = t.ConflictMissed
		for _, word := range conflictWords {
			if strings.Contains(answer, word) {
				scores[domain.ScoreConflict] = t.ConflictFound
				break
			}
		}
	}

	retrieved := make(map[string]struct{}, len(resp.RetrievedContextIDs))
	for _, id := range resp.RetrievedContextIDs {
		retrieved[id] = struct{}{}
	}
	cited := 0
	for _, ref := range golden.ExpectedRefs {
		if _, ok := retrieved[ref]; ok {
			cited++
		}
	}
	switch {
	case cited >= 1:
		scores[domain.ScoreCitation] = t.CitationHit
	case resp.Citation != "":
		scores[domain.ScoreCitation] = t.CitationAny
	}

	switch citation := resp.Citation; {
	case len(citation) > t.FaithLongLen:
		scores[domain.ScoreFaithfulness] = t.FaithLong
	case citation != "":
		scores[domain.ScoreFaithfulness] = t.FaithAny
	}

	return scores
}

// verdictSimilarity computes normalized Levenshtein similarity between
// two already-folded verdict strings, 1.0 meaning identical.
func verdictSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	sim := 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// expectsConflict reports whether the golden clause set encodes a
// conflict the answer should surface: more than one clause where at
// least one is a conflict or exception clause.
func expectsConflict(expectedRefs []string) bool {
	if len(expectedRefs) < 2 {
		return false
	}
	for _, ref := range expectedRefs {
		if strings.Contains(ref, "conflict") || strings.Contains(ref, "exception") {
			return true
		}
	}
	return false
}
