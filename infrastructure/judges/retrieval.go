package judges

// Retrieval scoring is pure set arithmetic over document ids and needs
// neither the LLM nor the golden key points, so it lives apart from the
// rubric graders.

// HitScore implements the single-reference hit policy: full marks when
// any expected id was retrieved, zero otherwise. The factcheck challenge
// uses it because finding one correct source is enough to verify a claim.
func HitScore(retrieved, expected []string) float64 {
	if len(expected) == 0 {
		return MinScore
	}
	want := make(map[string]struct{}, len(expected))
	for _, id := range expected {
		want[id] = struct{}{}
	}
	for _, id := range retrieved {
		if _, ok := want[id]; ok {
			return MaxScore
		}
	}
	return MinScore
}

// CoverageScore implements the multi-reference coverage policy: the
// fraction of expected ids that were retrieved, scaled to [0, 10].
// The legal challenge uses it because answering a clause question
// correctly requires every relevant clause, including the conflicting
// ones. Duplicate retrieved ids count once. An empty expected set scores
// zero rather than dividing by zero.
func CoverageScore(retrieved, expected []string) float64 {
	if len(expected) == 0 {
		return MinScore
	}
	want := make(map[string]struct{}, len(expected))
	for _, id := range expected {
		want[id] = struct{}{}
	}
	found := 0
	for _, id := range retrieved {
		if _, ok := want[id]; ok {
			found++
			delete(want, id)
		}
	}
	return float64(found) / float64(len(expected)) * MaxScore
}
