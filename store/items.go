// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/household-pick/auth"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/models"
)

// AddCandidate appends an item to a draft comparison
func (s *Store) AddCandidate(ctx context.Context, comparisonID string, req models.AddCandidateRequest) (models.CandidateItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CandidateItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := lockComparison(ctx, tx, comparisonID, models.StatusDraft); err != nil {
		return models.CandidateItem{}, err
	}

	var count, lastPosition int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(sort_order), 0)
		FROM candidate_item
		WHERE comparison_id = $1
	`, comparisonID).Scan(&count, &lastPosition)
	if err != nil {
		return models.CandidateItem{}, fmt.Errorf("failed to count candidates: %w", err)
	}
	if count >= models.MaxCandidates {
		return models.CandidateItem{}, decision.Invalid("items", fmt.Sprintf("a comparison holds at most %d items", models.MaxCandidates))
	}

	id, err := auth.GenerateID(12)
	if err != nil {
		return models.CandidateItem{}, err
	}

	item := models.CandidateItem{
		ID:             id,
		ComparisonID:   comparisonID,
		Title:          req.Title,
		Price:          req.Price,
		Store:          req.Store,
		WishlistItemID: req.WishlistItemID,
		Position:       lastPosition + 1,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate_item (id, comparison_id, title, price, store, wishlist_item_id, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ComparisonID, item.Title, item.Price, item.Store, item.WishlistItemID, item.Position)
	if err != nil {
		return models.CandidateItem{}, fmt.Errorf("failed to insert candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.CandidateItem{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return item, nil
}

// ListCandidates returns a comparison's items in position order
func (s *Store) ListCandidates(ctx context.Context, comparisonID string) ([]models.CandidateItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, comparison_id, title, price, store, wishlist_item_id, sort_order
		FROM candidate_item
		WHERE comparison_id = $1
		ORDER BY sort_order
	`, comparisonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CandidateItem{}
	for rows.Next() {
		var it models.CandidateItem
		if err := rows.Scan(&it.ID, &it.ComparisonID, &it.Title, &it.Price, &it.Store, &it.WishlistItemID, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddCriterion adds a weighted criterion to a draft comparison.
// Names are normalized and must be unique within the comparison.
func (s *Store) AddCriterion(ctx context.Context, comparisonID, name string, weight float64) (models.Criterion, error) {
	name = decision.NormalizeCriterionName(name)
	if name == "" {
		return models.Criterion{}, decision.Invalid("name", "is required")
	}
	if err := decision.ValidateWeight(weight); err != nil {
		return models.Criterion{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Criterion{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := lockComparison(ctx, tx, comparisonID, models.StatusDraft); err != nil {
		return models.Criterion{}, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT name, sort_order FROM criterion WHERE comparison_id = $1
	`, comparisonID)
	if err != nil {
		return models.Criterion{}, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer rows.Close()

	// Names match case-insensitively: "USB Ports" and "Usb Ports" are one criterion
	key := decision.CriterionKey(name)
	var lastPosition int
	for rows.Next() {
		var existing string
		var position int
		if err := rows.Scan(&existing, &position); err != nil {
			return models.Criterion{}, fmt.Errorf("failed to scan criterion: %w", err)
		}
		if decision.CriterionKey(existing) == key {
			return models.Criterion{}, decision.Invalid("name", "criterion "+existing+" already exists")
		}
		lastPosition = max(lastPosition, position)
	}
	if err := rows.Err(); err != nil {
		return models.Criterion{}, fmt.Errorf("failed to iterate criteria: %w", err)
	}
	rows.Close()

	c, err := insertCriterion(ctx, tx, comparisonID, name, weight, lastPosition+1)
	if err != nil {
		return models.Criterion{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Criterion{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

func insertCriterion(ctx context.Context, tx *sql.Tx, comparisonID, name string, weight float64, position int) (models.Criterion, error) {
	id, err := auth.GenerateID(12)
	if err != nil {
		return models.Criterion{}, err
	}

	c := models.Criterion{
		ID:           id,
		ComparisonID: comparisonID,
		Name:         name,
		Weight:       weight,
		Position:     position,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO criterion (id, comparison_id, name, weight, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.ComparisonID, c.Name, c.Weight, c.Position)
	if err != nil {
		return models.Criterion{}, fmt.Errorf("failed to insert criterion: %w", err)
	}
	return c, nil
}

// ListCriteria returns a comparison's criteria in position order
func (s *Store) ListCriteria(ctx context.Context, comparisonID string) ([]models.Criterion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, comparison_id, name, weight, sort_order
		FROM criterion
		WHERE comparison_id = $1
		ORDER BY sort_order
	`, comparisonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	criteria := []models.Criterion{}
	for rows.Next() {
		var c models.Criterion
		if err := rows.Scan(&c.ID, &c.ComparisonID, &c.Name, &c.Weight, &c.Position); err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}
