package resolver

import (
	"regexp"
	"time"

	"github.com/yourflock/epgreconciler/internal/fuzzy"
	"github.com/yourflock/epgreconciler/internal/matchstore"
	"github.com/yourflock/epgreconciler/internal/progindex"
	"github.com/yourflock/epgreconciler/internal/xmltv"
)

// categoryWitnessThreshold is the number of times a (sports-category,
// epg-category) pairing must be confirmed by matches in a single run
// before it is upserted as a category_map hypothesis.
const categoryWitnessThreshold = 4

type categoryPair struct {
	Sports, EPG string
}

type compiledPatternMatch struct {
	SportsTitle string
	Re          *regexp.Regexp
}

// searchPhase names one pass of the broad fuzzy search ladder: which
// channel scope it searches and which pre-filter (alignment or exact
// duration) candidates must additionally satisfy.
type searchPhase struct {
	sameChannel      bool
	requireAlignment bool
	requireDuration  bool
}

var searchPhases = []searchPhase{
	{sameChannel: true, requireAlignment: true},
	{sameChannel: false, requireAlignment: true},
	{sameChannel: true, requireDuration: true},
	{sameChannel: false, requireDuration: true},
}

// Resolution is the outcome of Resolve.
//
// Found is false when no base-EPG correspondence exists for the sports
// program — the caller (the timeline merger) then merges the sports
// program itself, verbatim, via the overlap case table.
//
// When Found is true, Substituted distinguishes the two ways a
// correspondence can be reported:
//   - Substituted == false: Program is the base-EPG program exactly as
//     it already stands (same identity the resolver read it at — a
//     pre-validated/forced/pattern match whose times already coincide
//     with the sports program's, or an aligned broad-fuzzy match, whose
//     times lie within the alignment tolerance). The base program
//     already represents this event; the merger takes no action for
//     this sports program at all.
//   - Substituted == true: Program has been cloned with the sports
//     program's own start/stop (a pre-validated/forced/pattern match
//     whose times differ from the sports program's, or a duration-equal
//     broad-fuzzy match with no alignment guarantee). The merger must merge this
//     returned Program into the timeline in place of the original
//     sports program, via the overlap case table, since its position
//     may now differ from where the matched base program originally
//     sat.
type Resolution struct {
	Program     *xmltv.Program
	Found       bool
	Substituted bool
}

// Resolver implements the match resolution ladder (C5): given a sports
// program, it finds the base-EPG program it corresponds to, if any,
// consulting and updating the match store as it goes.
type Resolver struct {
	store *matchstore.Store
	index *progindex.Index

	runStart       time.Time
	latestBaseStop time.Time
	cutoff         time.Time

	ignorePatterns []*regexp.Regexp
	patternMatches []compiledPatternMatch

	categoryWitness map[categoryPair]int
}

// New builds a Resolver, loading and compiling the ignore-pattern and
// pattern-match rules from store. outputDays is the full set of output
// horizons this run will emit; the resolver's search window extends to
// the widest of them.
func New(store *matchstore.Store, index *progindex.Index, runStart, latestBaseStop time.Time, outputDays []int) (*Resolver, error) {
	maxDays := 0
	for _, d := range outputDays {
		if d > maxDays {
			maxDays = d
		}
	}

	r := &Resolver{
		store:           store,
		index:           index,
		runStart:        runStart,
		latestBaseStop:  latestBaseStop,
		cutoff:          xmltv.Cutoff(runStart, maxDays),
		categoryWitness: make(map[categoryPair]int),
	}

	patterns, err := store.IgnoredPatterns()
	if err != nil {
		return nil, err
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		r.ignorePatterns = append(r.ignorePatterns, re)
	}

	pms, err := store.PatternMatches()
	if err != nil {
		return nil, err
	}
	for _, pm := range pms {
		re, err := regexp.Compile(pm.Pattern)
		if err != nil {
			continue
		}
		r.patternMatches = append(r.patternMatches, compiledPatternMatch{SportsTitle: pm.SportsTitle, Re: re})
	}

	return r, nil
}

// Resolve finds the base-EPG program sports corresponds to, if any. See
// Resolution for how the caller should interpret the result.
func (r *Resolver) Resolve(sports *xmltv.Program) (Resolution, error) {
	if !sports.Stop.After(r.runStart) {
		return Resolution{}, nil
	}
	if !sports.Start.Before(r.cutoff) {
		return Resolution{}, nil
	}
	if !r.latestBaseStop.IsZero() && !sports.Start.Before(r.latestBaseStop) {
		return Resolution{}, nil
	}

	sportsKey := matchstore.KeyOf(sports)

	ignored, err := r.store.IsIgnoredSportsProgram(sportsKey)
	if err != nil {
		return Resolution{}, err
	}
	if ignored {
		return Resolution{}, nil
	}
	for _, re := range r.ignorePatterns {
		if re.MatchString(sports.Title()) {
			return Resolution{}, nil
		}
	}

	if res, err := r.resolvePreValidated(sports, sportsKey); err != nil || res.Found {
		return res, err
	}
	if res, err := r.resolveForced(sports, sportsKey); err != nil || res.Found {
		return res, err
	}
	if res, err := r.resolvePattern(sports, sportsKey); err != nil || res.Found {
		return res, err
	}
	if res, err := r.resolveBroadFuzzy(sports, sportsKey); err != nil || res.Found {
		return res, err
	}

	if err := r.store.RecordFailure(sportsKey, r.runStart); err != nil {
		return Resolution{}, err
	}
	return Resolution{}, nil
}

func (r *Resolver) resolvePreValidated(sports *xmltv.Program, sportsKey matchstore.ProgramKey) (Resolution, error) {
	epgKey, ok, err := r.store.LookupValidatedForSports(sportsKey)
	if err != nil || !ok {
		return Resolution{}, err
	}
	epg, found := r.index.Lookup(epgKey.Title, epgKey.Channel, epgKey.Start, epgKey.Stop)
	if !found {
		return Resolution{}, nil
	}
	if err := r.store.RefreshValidated(sportsKey, epgKey, r.runStart); err != nil {
		return Resolution{}, err
	}
	return unchangedOrSubstituted(epg, sports), nil
}

func (r *Resolver) resolveForced(sports *xmltv.Program, sportsKey matchstore.ProgramKey) (Resolution, error) {
	epgKey, ok, err := r.store.LookupForced(sportsKey)
	if err != nil || !ok {
		return Resolution{}, err
	}
	epg, found := r.index.Lookup(epgKey.Title, epgKey.Channel, epgKey.Start, epgKey.Stop)
	if !found {
		return Resolution{}, nil
	}
	return unchangedOrSubstituted(epg, sports), nil
}

func (r *Resolver) resolvePattern(sports *xmltv.Program, sportsKey matchstore.ProgramKey) (Resolution, error) {
	for _, pm := range r.patternMatches {
		if pm.SportsTitle != sports.Title() {
			continue
		}
		for key, candidates := range r.index.AllKeys() {
			if !pm.Re.MatchString(key) {
				continue
			}
			for _, epg := range candidates {
				outcome, err := r.doProgramsMatch(sports, epg, true, false, false)
				if err != nil {
					return Resolution{}, err
				}
				if !outcome.Matched {
					continue
				}
				return unchangedOrSubstituted(epg, sports), nil
			}
		}
	}
	return Resolution{}, nil
}

// unchangedOrSubstituted reports epg as a non-substituted Resolution if
// it already shares sports's start/stop (the base program already sits
// exactly where sports would go), or as a substituted clone with
// sports's times otherwise.
func unchangedOrSubstituted(epg, sports *xmltv.Program) Resolution {
	if epg.Start.Equal(sports.Start) && epg.Stop.Equal(sports.Stop) {
		return Resolution{Program: epg, Found: true}
	}
	return Resolution{Program: epg.WithTimes(sports.Start, sports.Stop), Found: true, Substituted: true}
}

func (r *Resolver) resolveBroadFuzzy(sports *xmltv.Program, sportsKey matchstore.ProgramKey) (Resolution, error) {
	queries := []string{sports.Title()}
	if sub := sports.SubTitle(); sub != "" {
		queries = append(queries, sub)
	}

	allKeys := r.index.AllKeys()
	keys := make([]string, 0, len(allKeys))
	for k := range allKeys {
		keys = append(keys, k)
	}
	hits := fuzzy.BroadSearch(queries, keys)

	for _, phase := range searchPhases {
		for _, hit := range hits {
			for _, epg := range allKeys[hit.Key] {
				if phase.sameChannel && epg.Channel != sports.Channel {
					continue
				}
				if !phase.sameChannel && epg.Channel == sports.Channel {
					continue
				}
				outcome, err := r.doProgramsMatch(sports, epg, phase.requireAlignment, phase.requireDuration, true)
				if err != nil {
					return Resolution{}, err
				}
				if !outcome.Matched {
					continue
				}
				if err := r.recordMatch(sportsKey, epg, outcome); err != nil {
					return Resolution{}, err
				}
				if outcome.MatchType == fuzzy.MatchSafe {
					if err := r.witnessCategory(sports, epg); err != nil {
						return Resolution{}, err
					}
				}
				// Alignment phases (1/2) report the base program
				// unchanged — it already stands close enough to
				// sports's slot that no repositioning is needed.
				// Duration-equal phases (3/4) carry no alignment
				// guarantee at all, so they always substitute.
				if phase.requireDuration {
					return Resolution{Program: epg.WithTimes(sports.Start, sports.Stop), Found: true, Substituted: true}, nil
				}
				return Resolution{Program: epg, Found: true}, nil
			}
		}
	}
	return Resolution{}, nil
}

func (r *Resolver) recordMatch(sportsKey matchstore.ProgramKey, epg *xmltv.Program, outcome matchOutcome) error {
	return r.store.RecordMatch(sportsKey, matchstore.KeyOf(epg), outcome.Tuple.A, outcome.Tuple.B, outcome.Scores, outcome.MatchType, r.runStart)
}
