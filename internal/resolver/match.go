// Package resolver implements the match resolver (C5): the multi-stage
// search ladder (pre-validated → forced → pattern → broad fuzzy)
// selecting the best base-EPG program for a sports program.
package resolver

import (
	"time"

	"github.com/yourflock/epgreconciler/internal/fuzzy"
	"github.com/yourflock/epgreconciler/internal/matchstore"
	"github.com/yourflock/epgreconciler/internal/xmltv"
)

const (
	// alignmentTolerance is the maximum |Δ| between two instants for
	// them to be considered "aligned".
	alignmentTolerance = 1800 * time.Second

	// comparableDurationTolerance is the maximum |durA-durB| for two
	// durations to be considered "comparable".
	comparableDurationTolerance = 3600 * time.Second
)

// aligned reports whether a and b are within alignmentTolerance of each
// other.
func aligned(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= alignmentTolerance
}

// comparableDuration reports whether durations a and b are within
// comparableDurationTolerance of each other.
func comparableDuration(a, b time.Duration) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= comparableDurationTolerance
}

// equalDuration reports whether durations a and b are exactly equal.
func equalDuration(a, b time.Duration) bool {
	return a == b
}

// matchOutcome is the result of doProgramsMatch: whether S and E match,
// and (if so) the tuple/scores/classification that produced the match —
// needed by the caller to persist a program_match row.
type matchOutcome struct {
	Matched   bool
	Tuple     fuzzy.Tuple
	Scores    fuzzy.Scores
	MatchType fuzzy.MatchType
}

// doProgramsMatch decides whether sports program S matches base-EPG
// program E under the given constraints, mirroring
// `_do_programs_match` from the original source:
//   - E in ignored_epg_program_match is rejected immediately.
//   - If requireAlignment: both endpoints must be aligned and durations
//     comparable, else reject.
//   - If requireDuration: durations must be exactly equal.
//   - If scoreTitles: build candidate match tuples and evaluate safe;
//     if alignment was required, also fall back to risky.
func (r *Resolver) doProgramsMatch(sports, epg *xmltv.Program, requireAlignment, requireDuration, scoreTitles bool) (matchOutcome, error) {
	ignored, err := r.store.IsIgnoredEPGProgram(matchstore.KeyOf(epg))
	if err != nil {
		return matchOutcome{}, err
	}
	if ignored {
		return matchOutcome{}, nil
	}

	if requireAlignment {
		if !aligned(sports.Start, epg.Start) || !aligned(sports.Stop, epg.Stop) {
			return matchOutcome{}, nil
		}
		if !comparableDuration(sports.Duration(), epg.Duration()) {
			return matchOutcome{}, nil
		}
	}

	if requireDuration {
		if !equalDuration(sports.Duration(), epg.Duration()) {
			return matchOutcome{}, nil
		}
	}

	if !scoreTitles {
		return matchOutcome{Matched: true}, nil
	}

	tuples, err := r.buildMatchTuples(sports, epg)
	if err != nil {
		return matchOutcome{}, err
	}

	if t, s, ok := fuzzy.EvaluateSafe(tuples); ok {
		return matchOutcome{Matched: true, Tuple: t, Scores: s, MatchType: fuzzy.MatchSafe}, nil
	}

	if requireAlignment {
		if t, s, ok := fuzzy.EvaluateRisky(tuples); ok {
			return matchOutcome{Matched: true, Tuple: t, Scores: s, MatchType: fuzzy.MatchRisky}, nil
		}
	}

	return matchOutcome{}, nil
}
