// Package ranking orders match results for presentation.
package ranking

import (
	"sort"

	"github.com/jonathan/career-copilot/internal/types"
)

// Rank sorts results in place by recommendation tier, best first, then by
// descending score. Equal entries keep their relative order.
func Rank(results []types.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i].Recommendation, results[j].Recommendation, results[i].TotalScore, results[j].TotalScore)
	})
}

// RankStored is Rank for results read back from storage.
func RankStored(matches []types.StoredMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return less(matches[i].Recommendation, matches[j].Recommendation, matches[i].TotalScore, matches[j].TotalScore)
	})
}

// less orders by tier ordinal, then by higher score.
func less(a, b types.Recommendation, sa, sb float64) bool {
	if oa, ob := a.Ordinal(), b.Ordinal(); oa != ob {
		return oa < ob
	}
	return sa > sb
}

// TierCounts returns how many results fall in each recommendation tier.
func TierCounts(results []types.MatchResult) map[types.Recommendation]int {
	counts := make(map[types.Recommendation]int)
	for _, r := range results {
		counts[types.Recommendation(r.Recommendation.Ordinal())]++
	}
	return counts
}
