// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/household-pick/models"
)

// ErrStaleVersion is returned by Repository.SetConfirmed when ratings changed
// after the result being confirmed was computed.
var ErrStaleVersion = errors.New("rating version changed")

// confirmAttempts bounds how often a confirmation re-evaluates after a stale version.
const confirmAttempts = 3

// Repository is the persistence contract the engine reads and writes through.
type Repository interface {
	GetComparison(ctx context.Context, id string) (models.Comparison, error)
	ListCandidates(ctx context.Context, comparisonID string) ([]models.CandidateItem, error)
	ListCriteria(ctx context.Context, comparisonID string) ([]models.Criterion, error)
	ListRatings(ctx context.Context, comparisonID string) ([]models.Rating, error)

	// UpsertRating stores the rating only while the comparison is active.
	// It returns ErrFrozen once the decision is confirmed.
	UpsertRating(ctx context.Context, comparisonID string, rating models.Rating) (models.Rating, error)

	// SetConfirmed moves an active comparison to confirmed if its rating
	// version still equals result.RatingVersion, and stores the snapshot.
	SetConfirmed(ctx context.Context, comparisonID, chosenItemID string, matched bool, result models.DecisionResult) (models.DecisionSnapshot, error)
}

// Options configures a Service.
type Options struct {
	// CacheTTL bounds how long an evaluation stays memoized. Zero disables caching.
	CacheTTL time.Duration
	Metrics  *Metrics
}

// Service runs the decision engine against a Repository. It holds no
// identity state: raters are passed on every call.
type Service struct {
	repo    Repository
	cache   *gocache.Cache
	group   singleflight.Group
	metrics *Metrics
}

// NewService creates a Service.
func NewService(repo Repository, opts Options) *Service {
	s := &Service{repo: repo, metrics: opts.Metrics}
	if opts.CacheTTL > 0 {
		s.cache = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// Evaluate scores, ranks and measures agreement for a comparison as seen by raters.
// An empty rater set counts every rater who has rated.
func (s *Service) Evaluate(ctx context.Context, comparisonID string, raters []string) (models.DecisionResult, error) {
	comp, err := s.repo.GetComparison(ctx, comparisonID)
	if err != nil {
		return models.DecisionResult{}, err
	}
	return s.evaluate(ctx, comp, raters)
}

func (s *Service) evaluate(ctx context.Context, comp models.Comparison, raters []string) (models.DecisionResult, error) {
	raters = normalizeRaters(raters)
	key := cacheKey(comp.ID, comp.RatingVersion, raters)

	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			s.metrics.evaluation(true)
			return cloneResult(v.(models.DecisionResult)), nil
		}
	}

	// The work is shared by every caller waiting on key, so it must not
	// stop when one of them goes away.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		items, err := s.repo.ListCandidates(shared, comp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list candidates: %w", err)
		}
		criteria, err := s.repo.ListCriteria(shared, comp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list criteria: %w", err)
		}
		ratings, err := s.repo.ListRatings(shared, comp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list ratings: %w", err)
		}

		result := BuildResult(comp, items, criteria, ratings, raters)
		if s.cache != nil {
			s.cache.SetDefault(key, result)
		}
		return result, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return models.DecisionResult{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return models.DecisionResult{}, res.Err
	}

	s.metrics.evaluation(false)
	return cloneResult(res.Val.(models.DecisionResult)), nil
}

// BuildResult assembles the presentation result from loaded comparison data.
func BuildResult(comp models.Comparison, items []models.CandidateItem, criteria []models.Criterion, ratings []models.Rating, raters []string) models.DecisionResult {
	criteria = EffectiveCriteria(comp.Type, criteria)

	// Scoring only sees ratings for this comparison's criteria
	known := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		known[c.ID] = true
	}
	scoped := make([]models.Rating, 0, len(ratings))
	for _, r := range ratings {
		if known[r.CriterionID] {
			scoped = append(scoped, r)
		}
	}

	ranked := RankItems(items, criteria, scoped, raters)

	result := models.DecisionResult{
		ComparisonID:  comp.ID,
		RatingVersion: comp.RatingVersion,
		RaterIDs:      raters,
		Rankings:      make([]models.ItemResult, 0, len(ranked)),
	}
	if len(raters) == 0 {
		result.RaterIDs = ratersOf(scoped)
	}

	rank := 0
	for _, is := range ranked {
		ir := models.ItemResult{
			ItemID:           is.Item.ID,
			Title:            is.Item.Title,
			Price:            is.Item.Price,
			Position:         is.Item.Position,
			RatedCriteria:    is.RatedCriteria,
			InsufficientData: !is.Defined,
			Criteria:         is.Criteria,
		}
		if is.Defined {
			rank++
			score := is.Score
			ir.Score = &score
			ir.Rank = rank
		}
		result.Rankings = append(result.Rankings, ir)
	}

	if winner, ok := DetermineWinner(ranked); ok {
		id := winner.ID
		result.WinnerItemID = &id
	}
	if agreement, ok := ComputeAgreement(scoped, raters); ok {
		result.Agreement = &agreement
	}
	setQuickStats(&result, items, ranked)

	return result
}

// RecordRating validates and upserts one rater's rating for an (item, criterion) pair.
func (s *Service) RecordRating(ctx context.Context, comparisonID, itemID, criterionID, raterID string, value int) (models.Rating, error) {
	if err := ValidateRatingValue(value); err != nil {
		return models.Rating{}, err
	}
	if raterID == "" {
		return models.Rating{}, Invalid("rater_id", "is required")
	}

	comp, err := s.repo.GetComparison(ctx, comparisonID)
	if err != nil {
		return models.Rating{}, err
	}
	if err := requireActive(comp); err != nil {
		return models.Rating{}, err
	}

	items, err := s.repo.ListCandidates(ctx, comparisonID)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to list candidates: %w", err)
	}
	if !slices.ContainsFunc(items, func(it models.CandidateItem) bool { return it.ID == itemID }) {
		return models.Rating{}, Invalid("item_id", "is not a candidate of this comparison")
	}

	criteria, err := s.repo.ListCriteria(ctx, comparisonID)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to list criteria: %w", err)
	}
	if !slices.ContainsFunc(criteria, func(c models.Criterion) bool { return c.ID == criterionID }) {
		return models.Rating{}, Invalid("criterion_id", "does not belong to this comparison")
	}

	stored, err := s.repo.UpsertRating(ctx, comparisonID, models.Rating{
		ItemID:      itemID,
		CriterionID: criterionID,
		RaterID:     raterID,
		Value:       value,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		return models.Rating{}, err
	}

	s.metrics.ratingRecorded()
	return stored, nil
}

// ConfirmDecision records chosenItemID as the final choice and freezes the comparison.
//
// A choice other than the computed winner requires override. Whether the
// choice matched the computed winner is stored with the decision.
func (s *Service) ConfirmDecision(ctx context.Context, comparisonID, chosenItemID string, override bool, raters []string) (models.DecisionSnapshot, error) {
	for attempt := 1; ; attempt++ {
		comp, err := s.repo.GetComparison(ctx, comparisonID)
		if err != nil {
			return models.DecisionSnapshot{}, err
		}
		if err := requireActive(comp); err != nil {
			return models.DecisionSnapshot{}, err
		}

		result, err := s.evaluate(ctx, comp, raters)
		if err != nil {
			return models.DecisionSnapshot{}, err
		}

		if !slices.ContainsFunc(result.Rankings, func(ir models.ItemResult) bool { return ir.ItemID == chosenItemID }) {
			return models.DecisionSnapshot{}, Invalid("item_id", "is not a candidate of this comparison")
		}

		matched := result.WinnerItemID != nil && *result.WinnerItemID == chosenItemID
		if !matched && !override {
			return models.DecisionSnapshot{}, Invalid("item_id", "is not the top ranked item; set override to confirm it anyway")
		}

		snap, err := s.repo.SetConfirmed(ctx, comparisonID, chosenItemID, matched, result)
		if errors.Is(err, ErrStaleVersion) && attempt < confirmAttempts {
			slog.Debug("ratings changed during confirmation, re-evaluating", "comparison_id", comparisonID, "attempt", attempt)
			continue
		}
		if err != nil {
			return models.DecisionSnapshot{}, err
		}

		s.metrics.decisionConfirmed(matched)
		return snap, nil
	}
}

func requireActive(comp models.Comparison) error {
	switch comp.Status {
	case models.StatusActive:
		return nil
	case models.StatusConfirmed:
		return ErrFrozen
	default:
		return Invalid("status", "comparison is not active")
	}
}

// normalizeRaters sorts and de-duplicates rater IDs, dropping empty ones.
func normalizeRaters(raters []string) []string {
	out := make([]string, 0, len(raters))
	for _, r := range raters {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func ratersOf(ratings []models.Rating) []string {
	ids := make([]string, 0)
	for _, r := range ratings {
		ids = append(ids, r.RaterID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func cacheKey(comparisonID string, version int64, raters []string) string {
	return comparisonID + ":" + strconv.FormatInt(version, 10) + ":" + strings.Join(raters, ",")
}

// setQuickStats fills the price range over all candidates and the mean of
// the defined item scores.
func setQuickStats(result *models.DecisionResult, items []models.CandidateItem, ranked []ItemScore) {
	for i, it := range items {
		if i == 0 {
			lo, hi := it.Price, it.Price
			result.PriceMin, result.PriceMax = &lo, &hi
			continue
		}
		*result.PriceMin = min(*result.PriceMin, it.Price)
		*result.PriceMax = max(*result.PriceMax, it.Price)
	}

	var sum float64
	var n int
	for _, is := range ranked {
		if is.Defined {
			sum += is.Score
			n++
		}
	}
	if n > 0 {
		avg := sum / float64(n)
		result.AverageScore = &avg
	}
}

func cloneResult(r models.DecisionResult) models.DecisionResult {
	r.RaterIDs = slices.Clone(r.RaterIDs)
	r.Rankings = slices.Clone(r.Rankings)
	for i := range r.Rankings {
		r.Rankings[i].Criteria = slices.Clone(r.Rankings[i].Criteria)
	}
	if r.PriceMin != nil {
		lo, hi := *r.PriceMin, *r.PriceMax
		r.PriceMin, r.PriceMax = &lo, &hi
	}
	return r
}
