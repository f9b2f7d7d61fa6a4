// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/household-pick/auth"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/models"
)

// SetConfirmed freezes an active comparison on chosenItemID and stores the
// result it was decided on. The update only applies while the comparison's
// rating version still equals result.RatingVersion; otherwise it returns
// decision.ErrStaleVersion and nothing is written.
func (s *Store) SetConfirmed(ctx context.Context, comparisonID, chosenItemID string, matched bool, result models.DecisionResult) (models.DecisionSnapshot, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to marshal result: %w", err)
	}

	id, err := auth.GenerateID(12)
	if err != nil {
		return models.DecisionSnapshot{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE comparison
		SET status = $1, chosen_item_id = $2, matched_computed_winner = $3, confirmed_at = $4
		WHERE id = $5 AND status = $6 AND rating_version = $7
	`, models.StatusConfirmed, chosenItemID, matched, now, comparisonID, models.StatusActive, result.RatingVersion)
	if err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to confirm comparison: %w", err)
	}
	if err := requireAffected(ctx, tx, res, comparisonID, models.StatusActive); err != nil {
		return models.DecisionSnapshot{}, err
	}

	snap := models.DecisionSnapshot{
		ID:                    id,
		ComparisonID:          comparisonID,
		ChosenItemID:          chosenItemID,
		MatchedComputedWinner: matched,
		ComputedAt:            now,
		Result:                result,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO decision_snapshot (id, comparison_id, chosen_item_id, matched_computed_winner, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, snap.ID, snap.ComparisonID, snap.ChosenItemID, snap.MatchedComputedWinner, snap.ComputedAt, string(payload))
	if err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to store decision snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return snap, nil
}

// GetDecisionSnapshot loads the result a comparison was confirmed with
func (s *Store) GetDecisionSnapshot(ctx context.Context, comparisonID string) (models.DecisionSnapshot, error) {
	var snap models.DecisionSnapshot
	var payload []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT id, comparison_id, chosen_item_id, matched_computed_winner, computed_at, payload
		FROM decision_snapshot
		WHERE comparison_id = $1
	`, comparisonID).Scan(&snap.ID, &snap.ComparisonID, &snap.ChosenItemID, &snap.MatchedComputedWinner, &snap.ComputedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DecisionSnapshot{}, decision.NotFound("decision", comparisonID)
	}
	if err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to query decision snapshot: %w", err)
	}

	if err := json.Unmarshal(payload, &snap.Result); err != nil {
		return models.DecisionSnapshot{}, fmt.Errorf("failed to unmarshal decision snapshot: %w", err)
	}
	return snap, nil
}

// GetDetail loads a comparison with everything attached to it
func (s *Store) GetDetail(ctx context.Context, comp models.Comparison) (models.ComparisonDetail, error) {
	detail := models.ComparisonDetail{Comparison: comp}

	var err error
	if detail.Items, err = s.ListCandidates(ctx, comp.ID); err != nil {
		return models.ComparisonDetail{}, fmt.Errorf("failed to list candidates: %w", err)
	}
	if detail.Criteria, err = s.ListCriteria(ctx, comp.ID); err != nil {
		return models.ComparisonDetail{}, fmt.Errorf("failed to list criteria: %w", err)
	}
	if detail.Raters, err = s.ListRaters(ctx, comp.ID); err != nil {
		return models.ComparisonDetail{}, fmt.Errorf("failed to list raters: %w", err)
	}
	if detail.ProCons, err = s.ListProCons(ctx, comp.ID); err != nil {
		return models.ComparisonDetail{}, fmt.Errorf("failed to list pros and cons: %w", err)
	}
	if detail.Comments, err = s.ListComments(ctx, comp.ID); err != nil {
		return models.ComparisonDetail{}, fmt.Errorf("failed to list comments: %w", err)
	}
	return detail, nil
}
