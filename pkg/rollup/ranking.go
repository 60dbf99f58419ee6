package rollup

import "sort"

type Ranked struct {
	Key   string
	Count int
}

// TopN returns at most n entries of counts sorted by count descending. Ties
// are ordered by key so the output is deterministic.
func TopN(counts map[string]int, n int) []Ranked {
	if n <= 0 || len(counts) == 0 {
		return []Ranked{}
	}

	ranked := make([]Ranked, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, Ranked{Key: key, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}
