package catalog

import (
	"sort"
	"strings"
)

func toLower(s string) string { return strings.ToLower(s) }

func containsFold(haystack, lowerNeedle string) bool {
	if lowerNeedle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

func sortMatchesByScore(matches []PropertyMatch) {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
}

func sortResultsByScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
