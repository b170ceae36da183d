package fuzzy

import "sort"

// Hit is one broad-search result: a key from the program index and the
// best token-sort-ratio score any query string achieved against it.
type Hit struct {
	Key   string
	Score int
}

// BroadSearch scores every key against every query string using
// TokenSortRatio, keeps up to 5 hits per query string, deduplicates
// across query strings by keeping the max score per key, and returns
// the result sorted by descending score.
func BroadSearch(queries []string, keys []string) []Hit {
	best := make(map[string]int)

	for _, q := range queries {
		type scored struct {
			key   string
			score int
		}
		var ranked []scored
		for _, k := range keys {
			ranked = append(ranked, scored{key: k, score: TokenSortRatio(q, k)})
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
		if len(ranked) > 5 {
			ranked = ranked[:5]
		}
		for _, r := range ranked {
			if existing, ok := best[r.key]; !ok || r.score > existing {
				best[r.key] = r.score
			}
		}
	}

	hits := make([]Hit, 0, len(best))
	for k, score := range best {
		hits = append(hits, Hit{Key: k, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}
