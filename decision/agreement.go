// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"math"

	"github.com/danielhkuo/household-pick/models"
)

// maxSpread is the largest possible distance between two ratings on the 1-5 scale.
const maxSpread = float64(models.MaxRating - models.MinRating)

type pairKey struct {
	itemID      string
	criterionID string
}

// ComputeAgreement measures how closely the raters' scores match, as a
// percentage in [0, 100].
//
// Only (item, criterion) pairs rated by at least two of the admitted raters
// count. Each pair's disagreement is the mean pairwise absolute difference
// divided by the 0-4 spread; agreement is 100 × (1 − mean disagreement).
// ok is false when no pair was rated by two or more raters.
func ComputeAgreement(ratings []models.Rating, raters []string) (agreement float64, ok bool) {
	filter := newRaterFilter(raters)

	// Keep insertion order so the float sum is reproducible
	var order []pairKey
	values := make(map[pairKey][]int)
	for _, r := range ratings {
		if !filter.admits(r.RaterID) {
			continue
		}
		k := pairKey{itemID: r.ItemID, criterionID: r.CriterionID}
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = append(values[k], r.Value)
	}

	var total float64
	var pairs int
	for _, k := range order {
		vs := values[k]
		if len(vs) < 2 {
			continue
		}
		total += meanPairwiseDifference(vs) / maxSpread
		pairs++
	}

	if pairs == 0 {
		return 0, false
	}
	return 100 * (1 - total/float64(pairs)), true
}

// meanPairwiseDifference averages |a-b| over every unordered pair of values.
func meanPairwiseDifference(values []int) float64 {
	var sum float64
	var n int
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			sum += math.Abs(float64(values[i] - values[j]))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
