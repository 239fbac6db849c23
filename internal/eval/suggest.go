package eval

import "github.com/lithammer/fuzzysearch/fuzzy"

// suggestName returns the best fuzzy match for name among candidates, or ""
// if nothing ranks as plausibly close (spec.md §7.4 did-you-mean help).
func suggestName(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	if best.Distance > len(name)/2+2 {
		return ""
	}
	return best.Target
}
