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

// ErrNameTaken is returned when a display name is already used in a comparison.
var ErrNameTaken = errors.New("name already taken")

var _ decision.Repository = (*Store)(nil)

// Store is the SQL-backed repository. Queries use $N placeholders, which
// both lib/pq and modernc.org/sqlite accept.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const comparisonColumns = `
	id, name, owner_name, comparison_type, status, share_slug,
	rating_version, chosen_item_id, matched_computed_winner, confirmed_at, created_at`

func scanComparison(row rowScanner) (models.Comparison, error) {
	var c models.Comparison
	var shareSlug, chosen sql.NullString
	var matched sql.NullBool
	var confirmedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.Name, &c.OwnerName, &c.Type, &c.Status, &shareSlug,
		&c.RatingVersion, &chosen, &matched, &confirmedAt, &c.CreatedAt,
	)
	if err != nil {
		return models.Comparison{}, err
	}

	if shareSlug.Valid {
		c.ShareSlug = &shareSlug.String
	}
	if chosen.Valid {
		c.ChosenItemID = &chosen.String
	}
	if matched.Valid {
		c.MatchedComputedWinner = &matched.Bool
	}
	if confirmedAt.Valid {
		c.ConfirmedAt = &confirmedAt.Time
	}
	return c, nil
}

// CreateComparison inserts a draft comparison, seeded with criteria in the
// given order
func (s *Store) CreateComparison(ctx context.Context, name, ownerName, comparisonType string, seed []models.PresetCriterion) (models.Comparison, error) {
	if comparisonType == "" {
		comparisonType = models.TypeWeighted
	}

	id, err := auth.GenerateID(16)
	if err != nil {
		return models.Comparison{}, err
	}

	c := models.Comparison{
		ID:        id,
		Name:      name,
		OwnerName: ownerName,
		Type:      comparisonType,
		Status:    models.StatusDraft,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comparison (id, name, owner_name, comparison_type, status, rating_version, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, c.ID, c.Name, c.OwnerName, c.Type, c.Status, c.CreatedAt)
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to insert comparison: %w", err)
	}

	for i, pc := range seed {
		if _, err := insertCriterion(ctx, tx, c.ID, pc.Name, pc.Weight, i+1); err != nil {
			return models.Comparison{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Comparison{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

// GetComparison loads a comparison by ID
func (s *Store) GetComparison(ctx context.Context, id string) (models.Comparison, error) {
	c, err := scanComparison(s.db.QueryRowContext(ctx,
		`SELECT `+comparisonColumns+` FROM comparison WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comparison{}, decision.NotFound("comparison", id)
	}
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to query comparison: %w", err)
	}
	return c, nil
}

// GetComparisonBySlug loads an activated comparison by its share slug
func (s *Store) GetComparisonBySlug(ctx context.Context, slug string) (models.Comparison, error) {
	c, err := scanComparison(s.db.QueryRowContext(ctx,
		`SELECT `+comparisonColumns+` FROM comparison WHERE share_slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comparison{}, decision.NotFound("comparison", slug)
	}
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to query comparison: %w", err)
	}
	return c, nil
}

// Activate moves a draft comparison to active and assigns its share slug.
// A simple comparison without criteria gets an implicit "Overall" criterion.
func (s *Store) Activate(ctx context.Context, comparisonID, shareSlug string) (models.Comparison, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	comp, err := lockComparison(ctx, tx, comparisonID, models.StatusDraft)
	if err != nil {
		return models.Comparison{}, err
	}

	var itemCount, criteriaCount int
	err = tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM candidate_item WHERE comparison_id = $1),
			(SELECT COUNT(*) FROM criterion WHERE comparison_id = $1)
	`, comparisonID).Scan(&itemCount, &criteriaCount)
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to count comparison contents: %w", err)
	}

	if itemCount < models.MinCandidates || itemCount > models.MaxCandidates {
		return models.Comparison{}, decision.Invalid("items", fmt.Sprintf("comparison needs %d-%d items, has %d",
			models.MinCandidates, models.MaxCandidates, itemCount))
	}

	if criteriaCount == 0 {
		if comp.Type != models.TypeSimple {
			return models.Comparison{}, decision.Invalid("criteria", "a "+comp.Type+" comparison needs at least one criterion")
		}
		if _, err := insertCriterion(ctx, tx, comparisonID, "Overall", 1, 1); err != nil {
			return models.Comparison{}, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE comparison SET status = $1, share_slug = $2 WHERE id = $3
	`, models.StatusActive, shareSlug, comparisonID)
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to activate comparison: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Comparison{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	comp.Status = models.StatusActive
	comp.ShareSlug = &shareSlug
	return comp, nil
}

// lockComparison takes the comparison row for the rest of tx, provided it is
// in status. Otherwise it reports why the comparison cannot be changed.
func lockComparison(ctx context.Context, tx *sql.Tx, comparisonID, status string) (models.Comparison, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE comparison SET status = status WHERE id = $1 AND status = $2
	`, comparisonID, status)
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to lock comparison: %w", err)
	}
	if err := requireAffected(ctx, tx, res, comparisonID, status); err != nil {
		return models.Comparison{}, err
	}

	c, err := scanComparison(tx.QueryRowContext(ctx,
		`SELECT `+comparisonColumns+` FROM comparison WHERE id = $1`, comparisonID))
	if err != nil {
		return models.Comparison{}, fmt.Errorf("failed to query comparison: %w", err)
	}
	return c, nil
}

// requireAffected checks that a conditional update on a comparison matched
// its row, and otherwise returns the error explaining why it did not.
func requireAffected(ctx context.Context, q queryer, res sql.Result, comparisonID, wantStatus string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	if err := resolveState(ctx, q, comparisonID, wantStatus); err != nil {
		return err
	}
	return decision.ErrStaleVersion
}

// resolveState returns nil when the comparison is in wantStatus, and the
// error kind for its actual state otherwise.
func resolveState(ctx context.Context, q queryer, comparisonID, wantStatus string) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM comparison WHERE id = $1`, comparisonID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return decision.NotFound("comparison", comparisonID)
	}
	if err != nil {
		return fmt.Errorf("failed to query comparison status: %w", err)
	}

	switch status {
	case wantStatus:
		return nil
	case models.StatusConfirmed:
		return decision.ErrFrozen
	default:
		return decision.Invalid("status", "comparison is "+status+", expected "+wantStatus)
	}
}
