package match

import (
	"sort"
	"strings"

	"github.com/Benouakrim/Academora-02-sub002/core/university"
)

// Rank scores every university and sorts the results best first.
// Ties on the overall score are broken by, in order:
// the score of the heaviest weighted category (higher first),
// the estimated net price (lower first, unknown last),
// the national rank (lower number first, unranked last),
// the name, then the ID.
func Rank(univs []university.University, p Profile, weights Weights, precision string) []Result {
	results := make([]Result, 0, len(univs))
	for _, u := range univs {
		results = append(results, Score(u, p, weights, precision))
	}
	SortResults(results)
	return results
}

// SortResults sorts scored results best first; see Rank.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i], results[j])
	})
}

func less(a, b Result) bool {
	if a.Overall != b.Overall {
		return a.Overall > b.Overall
	}
	if a.heaviestScore != b.heaviestScore {
		return a.heaviestScore > b.heaviestScore
	}
	switch {
	case a.NetPrice != nil && b.NetPrice != nil:
		if *a.NetPrice != *b.NetPrice {
			return *a.NetPrice < *b.NetPrice
		}
	case a.NetPrice != nil:
		return true
	case b.NetPrice != nil:
		return false
	}
	switch {
	case a.NationalRank != nil && b.NationalRank != nil:
		if *a.NationalRank != *b.NationalRank {
			return *a.NationalRank < *b.NationalRank
		}
	case a.NationalRank != nil:
		return true
	case b.NationalRank != nil:
		return false
	}
	if c := strings.Compare(strings.ToLower(a.UniversityName), strings.ToLower(b.UniversityName)); c != 0 {
		return c < 0
	}
	return a.UniversityID < b.UniversityID
}
