// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/danielhkuo/household-pick/models"
)

// scoreEpsilon is the tolerance under which two weighted scores are equal.
const scoreEpsilon = 1e-9

// ItemScore is the weighted score of one candidate item.
type ItemScore struct {
	Item          models.CandidateItem
	Score         float64
	Defined       bool // false when no criterion was rated
	RatedCriteria int
	Criteria      []models.CriterionScore
}

// raterFilter reports whether a rater's ratings count. An empty set admits everyone.
type raterFilter map[string]struct{}

func newRaterFilter(raters []string) raterFilter {
	if len(raters) == 0 {
		return nil
	}
	f := make(raterFilter, len(raters))
	for _, r := range raters {
		f[r] = struct{}{}
	}
	return f
}

func (f raterFilter) admits(raterID string) bool {
	if f == nil {
		return true
	}
	_, ok := f[raterID]
	return ok
}

// ComputeItemScore calculates the criterion-weighted mean of an item's ratings.
//
// Each criterion contributes the mean of the ratings given by the admitted
// raters. Criteria nobody rated are left out of both sums, so adding an
// unrated criterion never moves the score. The result stays on the native
// 1-5 scale. ok is false when the item has no rated criterion at all.
func ComputeItemScore(itemID string, criteria []models.Criterion, ratings []models.Rating, raters []string) (score float64, rated int, ok bool) {
	return scoreBreakdown(CriterionBreakdown(itemID, criteria, ratings, raters))
}

// CriterionBreakdown returns, per criterion in the given order, the mean of
// the admitted raters' ratings for itemID. Mean is nil for unrated criteria.
func CriterionBreakdown(itemID string, criteria []models.Criterion, ratings []models.Rating, raters []string) []models.CriterionScore {
	filter := newRaterFilter(raters)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range ratings {
		if r.ItemID != itemID || !filter.admits(r.RaterID) {
			continue
		}
		sums[r.CriterionID] += float64(r.Value)
		counts[r.CriterionID]++
	}

	out := make([]models.CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		cs := models.CriterionScore{
			CriterionID: c.ID,
			Name:        c.Name,
			Weight:      c.Weight,
			Ratings:     counts[c.ID],
		}
		if n := counts[c.ID]; n > 0 {
			mean := sums[c.ID] / float64(n)
			cs.Mean = &mean
		}
		out = append(out, cs)
	}
	return out
}

func scoreBreakdown(breakdown []models.CriterionScore) (score float64, rated int, ok bool) {
	var weighted, totalWeight float64
	for _, cs := range breakdown {
		if cs.Mean == nil || cs.Weight <= 0 {
			continue
		}
		weighted += *cs.Mean * cs.Weight
		totalWeight += cs.Weight
		rated++
	}

	if rated == 0 || totalWeight == 0 {
		return 0, 0, false
	}
	return weighted / totalWeight, rated, true
}

// RankItems scores every item and orders them best first.
//
// Ordering: score descending, then more rated criteria, then lower price,
// then lower position, then item ID. Items without a score follow in
// position order.
func RankItems(items []models.CandidateItem, criteria []models.Criterion, ratings []models.Rating, raters []string) []ItemScore {
	scores := make([]ItemScore, 0, len(items))
	for _, item := range items {
		breakdown := CriterionBreakdown(item.ID, criteria, ratings, raters)
		s, rated, ok := scoreBreakdown(breakdown)
		scores = append(scores, ItemScore{
			Item:          item,
			Score:         s,
			Defined:       ok,
			RatedCriteria: rated,
			Criteria:      breakdown,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return less(scores[i], scores[j])
	})
	return scores
}

func less(a, b ItemScore) bool {
	// 1. Scored items before unscored ones
	if a.Defined != b.Defined {
		return a.Defined
	}

	if a.Defined {
		// 2. Higher score wins
		if math.Abs(a.Score-b.Score) > scoreEpsilon {
			return a.Score > b.Score
		}

		// 3. More complete information wins
		if a.RatedCriteria != b.RatedCriteria {
			return a.RatedCriteria > b.RatedCriteria
		}

		// 4. Lower price wins
		if a.Item.Price != b.Item.Price {
			return a.Item.Price < b.Item.Price
		}
	}

	// 5. Earlier position
	if a.Item.Position != b.Item.Position {
		return a.Item.Position < b.Item.Position
	}

	// 6. Stable tie-breaking by item ID (ascending)
	return a.Item.ID < b.Item.ID
}

// DetermineWinner returns the top ranked item, or false when no item has a score.
func DetermineWinner(ranked []ItemScore) (models.CandidateItem, bool) {
	if len(ranked) == 0 || !ranked[0].Defined {
		return models.CandidateItem{}, false
	}
	return ranked[0].Item, true
}

// EffectiveCriteria returns the criteria as scored for the comparison type.
// Simple comparisons ignore weights.
func EffectiveCriteria(comparisonType string, criteria []models.Criterion) []models.Criterion {
	if comparisonType != models.TypeSimple {
		return criteria
	}
	out := make([]models.Criterion, len(criteria))
	for i, c := range criteria {
		c.Weight = 1
		out[i] = c
	}
	return out
}

// ValidateRatingValue checks a raw rating against the 1-5 integer scale.
func ValidateRatingValue(value int) error {
	if value < models.MinRating || value > models.MaxRating {
		return Invalid("value", "rating must be an integer between 1 and 5")
	}
	return nil
}

// ValidateWeight rejects non-positive and non-finite weights.
func ValidateWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return Invalid("weight", "must be a positive number")
	}
	return nil
}

// NormalizeCriterionName trims, collapses inner whitespace and upper-cases the
// first letter of each word. The rest of each word is kept as typed, so
// "USB ports" becomes "USB Ports". Use CriterionKey to compare names.
func NormalizeCriterionName(name string) string {
	// Casers are stateful, one per call
	return cases.Title(language.English, cases.NoLower).String(strings.Join(strings.Fields(name), " "))
}

// CriterionKey is the case-insensitive identity of a criterion name.
func CriterionKey(name string) string {
	return cases.Fold().String(NormalizeCriterionName(name))
}
