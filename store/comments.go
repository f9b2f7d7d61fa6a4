// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/household-pick/auth"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/models"
)

// AddComment posts a message to the comparison's discussion thread.
// The thread is open while the comparison is active.
func (s *Store) AddComment(ctx context.Context, comparisonID, raterID, body string) (models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Comment{}, decision.Invalid("body", "is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := lockComparison(ctx, tx, comparisonID, models.StatusActive); err != nil {
		return models.Comment{}, err
	}

	c := models.Comment{
		ComparisonID: comparisonID,
		RaterID:      raterID,
		Body:         body,
		CreatedAt:    time.Now().UTC(),
	}

	err = tx.QueryRowContext(ctx, `
		SELECT display_name FROM rater WHERE id = $1 AND comparison_id = $2
	`, raterID, comparisonID).Scan(&c.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, decision.NotFound("rater", raterID)
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to load rater: %w", err)
	}

	if c.ID, err = auth.GenerateID(12); err != nil {
		return models.Comment{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comment (id, comparison_id, rater_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.ComparisonID, c.RaterID, c.Body, c.CreatedAt)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Comment{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

// ListComments returns the discussion thread oldest first
func (s *Store) ListComments(ctx context.Context, comparisonID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.comparison_id, c.rater_id, r.display_name, c.body, c.created_at
		FROM comment c
		JOIN rater r ON r.id = c.rater_id
		WHERE c.comparison_id = $1
		ORDER BY c.created_at, c.id
	`, comparisonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ComparisonID, &c.RaterID, &c.DisplayName, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
