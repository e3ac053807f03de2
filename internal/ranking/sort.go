package ranking

import (
	"sort"

	"places_ranker/internal/domain"
)

// SortByScore orders bs by Bayesian average, highest first. Businesses
// without a score go last; equal scores keep their fetch order.
func SortByScore(bs []domain.Business) {
	sort.SliceStable(bs, func(i, j int) bool {
		a, b := bs[i].BayesianAverage, bs[j].BayesianAverage
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}
