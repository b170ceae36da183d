package fuzzy

import "testing"

func TestTokenSortRatioIgnoresTokenOrder(t *testing.T) {
	if got := TokenSortRatio("Lakers at Celtics", "Celtics at Lakers"); got != 100 {
		t.Errorf("TokenSortRatio = %d, want 100", got)
	}
}

func TestTokenSortRatioExactMismatch(t *testing.T) {
	if got := TokenSortRatio("NBA Basketball", "Completely Different"); got >= Safe {
		t.Errorf("TokenSortRatio = %d, expected below Safe threshold", got)
	}
}

func TestScoresIsSafeRequiresEitherMetric(t *testing.T) {
	s := Scores{TokenSortRatio: 100, JaroWinkler: 0}
	if !s.IsSafe() {
		t.Error("expected IsSafe when TokenSortRatio alone clears Safe")
	}
	s = Scores{TokenSortRatio: 0, JaroWinkler: 40}
	if s.IsSafe() {
		t.Error("expected IsSafe to be false when neither metric clears Safe")
	}
}

func TestScoresIsRiskyRequiresBothMetrics(t *testing.T) {
	s := Scores{TokenSortRatio: 60, JaroWinkler: 40}
	if s.IsRisky() {
		t.Error("expected IsRisky false when only one metric clears Risky")
	}
	s = Scores{TokenSortRatio: 60, JaroWinkler: 60}
	if !s.IsRisky() {
		t.Error("expected IsRisky true when both metrics clear Risky")
	}
}

func TestScoresIsExact(t *testing.T) {
	if !(Scores{TokenSortRatio: 100, JaroWinkler: 100}).IsExact() {
		t.Error("expected IsExact true for two perfect scores")
	}
	if (Scores{TokenSortRatio: 100, JaroWinkler: 99}).IsExact() {
		t.Error("expected IsExact false when one metric is imperfect")
	}
}

func TestEvaluateSafeReturnsFirstPassingTuple(t *testing.T) {
	tuples := []Tuple{
		{A: "Completely Different", B: "Unrelated Title"},
		{A: "NBA Basketball", B: "NBA Basketball"},
	}
	got, scores, ok := EvaluateSafe(tuples)
	if !ok {
		t.Fatal("expected a safe match to be found")
	}
	if got != tuples[1] {
		t.Errorf("EvaluateSafe returned %+v, want %+v", got, tuples[1])
	}
	if !scores.IsSafe() {
		t.Error("expected returned scores to satisfy IsSafe")
	}
}

func TestEvaluateRiskyNoneMatch(t *testing.T) {
	tuples := []Tuple{{A: "Completely Different", B: "Unrelated Title"}}
	if _, _, ok := EvaluateRisky(tuples); ok {
		t.Error("expected no risky match among unrelated tuples")
	}
}
