package resolver

import (
	"strings"

	"github.com/yourflock/epgreconciler/internal/fuzzy"
	"github.com/yourflock/epgreconciler/internal/xmltv"
)

// categorySeparator is the delimiter a sports title uses to prefix its
// sport/league category onto the event name, e.g. "NBA: Lakers at Celtics".
const categorySeparator = ": "

// splitColon splits s on the first occurrence of categorySeparator,
// returning the prefix, the remainder, and whether a split occurred.
func splitColon(s string) (prefix, rest string, ok bool) {
	i := strings.Index(s, categorySeparator)
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+len(categorySeparator):], true
}

// concatTitleSub joins a title and sub-title the same way a category-
// prefixed title is built, used as the always-present fallback tuple.
func concatTitleSub(title, subTitle string) string {
	if subTitle == "" {
		return title
	}
	return title + categorySeparator + subTitle
}

// buildMatchTuples enumerates the candidate (a,b) string pairs to score
// sports against epg, per the candidate-enumeration rules:
//
//   - If the sports title carries a "category: event" prefix, consult
//     category_map for that category prefix. A row that is
//     valid and whose epg_category matches the EPG title's own
//     after-colon remainder gates on epg having a sub-title: when it
//     does, the sports event name is compared against the EPG
//     sub-title, and against the EPG sub-title's own "category: event"
//     split if it has one. A row that is reviewed and invalid is an
//     explicit negative — it aborts the whole candidate build
//     immediately, returning only whatever tuples were produced by
//     rows already considered (none of the fallback or catch-all
//     tuples below are appended).
//   - If no category-confirmed tuple was produced (no category_map
//     coverage yet, or the EPG program has no sub-title), fall back to
//     comparing the sports event name against the EPG sub-title
//     directly, and against the EPG sub-title's own "category: event"
//     split if it has one.
//   - If the sports title has no category prefix, compare titles
//     directly.
//   - The concatenated "title: sub-title" pair (on both sides) is
//     always appended last, as a catch-all.
func (r *Resolver) buildMatchTuples(sports, epg *xmltv.Program) ([]fuzzy.Tuple, error) {
	var tuples []fuzzy.Tuple

	sTitle, sSub := sports.Title(), sports.SubTitle()
	eTitle, eSub := epg.Title(), epg.SubTitle()

	if category, rest, ok := splitColon(sTitle); ok {
		_, eRest, _ := splitColon(eTitle)

		rows, err := r.store.CategoriesForSportsCategory(category)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			if row.IsValid {
				if row.EPGCategory == eRest && eSub != "" {
					tuples = append(tuples, fuzzy.Tuple{A: rest, B: eSub})
					if _, eSubRest, ok := splitColon(eSub); ok {
						tuples = append(tuples, fuzzy.Tuple{A: rest, B: eSubRest})
					}
				}
			} else if row.Reviewed {
				return tuples, nil
			}
		}

		if len(tuples) == 0 && eSub != "" {
			tuples = append(tuples, fuzzy.Tuple{A: rest, B: eSub})
			if _, eSubRest, ok := splitColon(eSub); ok {
				tuples = append(tuples, fuzzy.Tuple{A: rest, B: eSubRest})
			}
		}
	} else {
		tuples = append(tuples, fuzzy.Tuple{A: sTitle, B: eTitle})
	}

	tuples = append(tuples, fuzzy.Tuple{A: concatTitleSub(sTitle, sSub), B: concatTitleSub(eTitle, eSub)})

	return tuples, nil
}

// witnessCategory records an observed (sports-category, epg-category)
// pairing from a confirmed match. Once the same pairing has been
// witnessed categoryWitnessThreshold times in this run, it is upserted
// into category_map as an unreviewed hypothesis for an operator to
// later confirm — the store never overwrites an existing row's
// validation state.
func (r *Resolver) witnessCategory(sports, epg *xmltv.Program) error {
	sCategory, _, ok := splitColon(sports.Title())
	if !ok {
		return nil
	}
	eCategory, _, ok := splitColon(epg.Title())
	if !ok {
		return nil
	}

	pair := categoryPair{Sports: sCategory, EPG: eCategory}
	r.categoryWitness[pair]++
	if r.categoryWitness[pair] != categoryWitnessThreshold {
		return nil
	}
	return r.store.UpsertCategoryHypothesis(sCategory, eCategory)
}
