// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/household-pick/auth"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/models"
)

// JoinRater registers a household member on an active comparison.
// Display names are unique per comparison.
func (s *Store) JoinRater(ctx context.Context, comparisonID, displayName string) (models.Rater, error) {
	if err := resolveState(ctx, s.db, comparisonID, models.StatusActive); err != nil {
		return models.Rater{}, err
	}

	id, err := auth.GenerateID(12)
	if err != nil {
		return models.Rater{}, err
	}
	token, err := auth.GenerateRaterToken()
	if err != nil {
		return models.Rater{}, err
	}

	r := models.Rater{
		ID:           id,
		ComparisonID: comparisonID,
		DisplayName:  displayName,
		Token:        token,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rater (id, comparison_id, display_name, rater_token, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.ComparisonID, r.DisplayName, r.Token, r.CreatedAt)
	if err != nil {
		// Unique violations differ between drivers, so check directly.
		var taken bool
		checkErr := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM rater WHERE comparison_id = $1 AND display_name = $2)
		`, comparisonID, displayName).Scan(&taken)
		if checkErr == nil && taken {
			return models.Rater{}, ErrNameTaken
		}
		return models.Rater{}, fmt.Errorf("failed to insert rater: %w", err)
	}

	return r, nil
}

// GetRaterByToken resolves a rater token within a comparison
func (s *Store) GetRaterByToken(ctx context.Context, comparisonID, token string) (models.Rater, error) {
	var r models.Rater
	err := s.db.QueryRowContext(ctx, `
		SELECT id, comparison_id, display_name, rater_token, created_at
		FROM rater
		WHERE comparison_id = $1 AND rater_token = $2
	`, comparisonID, token).Scan(&r.ID, &r.ComparisonID, &r.DisplayName, &r.Token, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rater{}, decision.NotFound("rater", "token")
	}
	if err != nil {
		return models.Rater{}, fmt.Errorf("failed to query rater: %w", err)
	}
	return r, nil
}

// ListRaters returns everyone who joined a comparison, in join order
func (s *Store) ListRaters(ctx context.Context, comparisonID string) ([]models.Rater, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, comparison_id, display_name, rater_token, created_at
		FROM rater
		WHERE comparison_id = $1
		ORDER BY created_at, id
	`, comparisonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	raters := []models.Rater{}
	for rows.Next() {
		var r models.Rater
		if err := rows.Scan(&r.ID, &r.ComparisonID, &r.DisplayName, &r.Token, &r.CreatedAt); err != nil {
			return nil, err
		}
		raters = append(raters, r)
	}
	return raters, rows.Err()
}

// UpsertRating stores a rater's value for one item and criterion, replacing
// any earlier value. The comparison's rating version is bumped in the same
// transaction, which also serializes the write against confirmation.
func (s *Store) UpsertRating(ctx context.Context, comparisonID string, rating models.Rating) (models.Rating, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE comparison SET rating_version = rating_version + 1
		WHERE id = $1 AND status = $2
	`, comparisonID, models.StatusActive)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to bump rating version: %w", err)
	}
	if err := requireAffected(ctx, tx, res, comparisonID, models.StatusActive); err != nil {
		return models.Rating{}, err
	}

	if err := checkMembership(ctx, tx, comparisonID, rating.ItemID, rating.CriterionID, rating.RaterID); err != nil {
		return models.Rating{}, err
	}

	rating.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rating (item_id, criterion_id, rater_id, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, criterion_id, rater_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, rating.ItemID, rating.CriterionID, rating.RaterID, rating.Value, rating.UpdatedAt)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to upsert rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Rating{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rating, nil
}

// checkMembership verifies that item, criterion and rater all belong to the
// comparison.
func checkMembership(ctx context.Context, tx *sql.Tx, comparisonID, itemID, criterionID, raterID string) error {
	var hasItem, hasCriterion, hasRater bool
	err := tx.QueryRowContext(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM candidate_item WHERE id = $1 AND comparison_id = $4),
			EXISTS(SELECT 1 FROM criterion WHERE id = $2 AND comparison_id = $4),
			EXISTS(SELECT 1 FROM rater WHERE id = $3 AND comparison_id = $4)
	`, itemID, criterionID, raterID, comparisonID).Scan(&hasItem, &hasCriterion, &hasRater)
	if err != nil {
		return fmt.Errorf("failed to check rating references: %w", err)
	}

	switch {
	case !hasItem:
		return decision.NotFound("item", itemID)
	case !hasCriterion:
		return decision.NotFound("criterion", criterionID)
	case !hasRater:
		return decision.NotFound("rater", raterID)
	}
	return nil
}

// ListRatings returns every rating recorded on a comparison
func (s *Store) ListRatings(ctx context.Context, comparisonID string) ([]models.Rating, error) {
	return s.queryRatings(ctx, `
		SELECT r.item_id, r.criterion_id, r.rater_id, r.value, r.updated_at
		FROM rating r
		JOIN candidate_item i ON i.id = r.item_id
		WHERE i.comparison_id = $1
		ORDER BY i.sort_order, r.criterion_id, r.rater_id
	`, comparisonID)
}

// ListRatingsByRater returns one rater's ratings on a comparison
func (s *Store) ListRatingsByRater(ctx context.Context, comparisonID, raterID string) ([]models.Rating, error) {
	return s.queryRatings(ctx, `
		SELECT r.item_id, r.criterion_id, r.rater_id, r.value, r.updated_at
		FROM rating r
		JOIN candidate_item i ON i.id = r.item_id
		WHERE i.comparison_id = $1 AND r.rater_id = $2
		ORDER BY i.sort_order, r.criterion_id
	`, comparisonID, raterID)
}

func (s *Store) queryRatings(ctx context.Context, query string, args ...any) ([]models.Rating, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.ItemID, &r.CriterionID, &r.RaterID, &r.Value, &r.UpdatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// AddProCon attaches a free-text pro or con to an item of an active comparison
func (s *Store) AddProCon(ctx context.Context, comparisonID, itemID, raterID, kind, body string) (models.ProCon, error) {
	if kind != models.KindPro && kind != models.KindCon {
		return models.ProCon{}, decision.Invalid("kind", "must be pro or con")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ProCon{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := lockComparison(ctx, tx, comparisonID, models.StatusActive); err != nil {
		return models.ProCon{}, err
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM candidate_item WHERE id = $1 AND comparison_id = $2)
	`, itemID, comparisonID).Scan(&exists)
	if err != nil {
		return models.ProCon{}, fmt.Errorf("failed to check item: %w", err)
	}
	if !exists {
		return models.ProCon{}, decision.NotFound("item", itemID)
	}

	id, err := auth.GenerateID(12)
	if err != nil {
		return models.ProCon{}, err
	}

	pc := models.ProCon{
		ID:        id,
		ItemID:    itemID,
		RaterID:   raterID,
		Kind:      kind,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pro_con (id, item_id, rater_id, kind, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pc.ID, pc.ItemID, pc.RaterID, pc.Kind, pc.Body, pc.CreatedAt)
	if err != nil {
		return models.ProCon{}, fmt.Errorf("failed to insert pro/con: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ProCon{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pc, nil
}

// ListProCons returns all pros and cons on a comparison's items
func (s *Store) ListProCons(ctx context.Context, comparisonID string) ([]models.ProCon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.item_id, p.rater_id, p.kind, p.body, p.created_at
		FROM pro_con p
		JOIN candidate_item i ON i.id = p.item_id
		WHERE i.comparison_id = $1
		ORDER BY i.sort_order, p.created_at, p.id
	`, comparisonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	procons := []models.ProCon{}
	for rows.Next() {
		var pc models.ProCon
		if err := rows.Scan(&pc.ID, &pc.ItemID, &pc.RaterID, &pc.Kind, &pc.Body, &pc.CreatedAt); err != nil {
			return nil, err
		}
		procons = append(procons, pc)
	}
	return procons, rows.Err()
}
