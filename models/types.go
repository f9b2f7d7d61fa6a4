// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Comparison status constants
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusConfirmed = "confirmed"
)

// Comparison type constants
const (
	TypeSimple   = "simple"
	TypeWeighted = "weighted"
	TypeProCon   = "pro_con"
)

// Pro/con kinds
const (
	KindPro = "pro"
	KindCon = "con"
)

// Candidate limits for an active comparison
const (
	MinCandidates = 2
	MaxCandidates = 5
)

// Rating scale
const (
	MinRating = 1
	MaxRating = 5
)

// Request types

type CreateComparisonRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	OwnerName      string `json:"owner_name" validate:"required,max=100"`
	ComparisonType string `json:"comparison_type" validate:"omitempty,oneof=simple weighted pro_con"`
	Preset         string `json:"preset" validate:"omitempty,max=50"`
}

type AddCandidateRequest struct {
	Title          string  `json:"title" validate:"required,max=255"`
	Price          float64 `json:"price" validate:"gte=0"`
	Store          string  `json:"store" validate:"max=100"`
	WishlistItemID string  `json:"wishlist_item_id" validate:"max=64"`
}

type AddCriterionRequest struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

type JoinComparisonRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
}

type RecordRatingRequest struct {
	ItemID      string `json:"item_id" validate:"required"`
	CriterionID string `json:"criterion_id" validate:"required"`
	Value       int    `json:"value" validate:"min=1,max=5"`
}

type AddProConRequest struct {
	Kind string `json:"kind" validate:"required,oneof=pro con"`
	Body string `json:"body" validate:"required,max=500"`
}

type ConfirmDecisionRequest struct {
	ItemID   string   `json:"item_id" validate:"required"`
	Override bool     `json:"override"`
	Raters   []string `json:"raters" validate:"max=50,dive,required,max=64"` // empty counts every rater
}

type AddCommentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}

// Response types

type CreateComparisonResponse struct {
	ComparisonID string `json:"comparison_id"`
	AdminKey     string `json:"admin_key"`
}

type AddCandidateResponse struct {
	ItemID   string `json:"item_id"`
	Position int    `json:"position"`
}

type AddCriterionResponse struct {
	CriterionID string `json:"criterion_id"`
	Name        string `json:"name"`
}

type ActivateComparisonResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type JoinComparisonResponse struct {
	RaterID    string `json:"rater_id"`
	RaterToken string `json:"rater_token"`
}

type RecordRatingResponse struct {
	Rating  Rating `json:"rating"`
	Message string `json:"message"`
}

type ConfirmDecisionResponse struct {
	ChosenItemID          string           `json:"chosen_item_id"`
	MatchedComputedWinner bool             `json:"matched_computed_winner"`
	ConfirmedAt           time.Time        `json:"confirmed_at"`
	Snapshot              DecisionSnapshot `json:"snapshot"`
}

type MyRatingsResponse struct {
	RaterID string   `json:"rater_id"`
	Ratings []Rating `json:"ratings"`
}

type CommentsResponse struct {
	Comments []Comment `json:"comments"`
}

type PresetsResponse struct {
	Presets []Preset `json:"presets"`
}

// Domain types

type Comparison struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	OwnerName             string     `json:"owner_name"`
	Type                  string     `json:"comparison_type"`
	Status                string     `json:"status"`
	ShareSlug             *string    `json:"share_slug,omitempty"`
	RatingVersion         int64      `json:"rating_version"`
	ChosenItemID          *string    `json:"chosen_item_id,omitempty"`
	MatchedComputedWinner *bool      `json:"matched_computed_winner,omitempty"`
	ConfirmedAt           *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type CandidateItem struct {
	ID             string  `json:"id"`
	ComparisonID   string  `json:"comparison_id"`
	Title          string  `json:"title"`
	Price          float64 `json:"price"`
	Store          string  `json:"store,omitempty"`
	WishlistItemID string  `json:"wishlist_item_id,omitempty"`
	Position       int     `json:"position"`
}

type Criterion struct {
	ID           string  `json:"id"`
	ComparisonID string  `json:"comparison_id"`
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Position     int     `json:"position"`
}

type Rating struct {
	ItemID      string    `json:"item_id"`
	CriterionID string    `json:"criterion_id"`
	RaterID     string    `json:"rater_id"`
	Value       int       `json:"value"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Rater struct {
	ID           string    `json:"id"`
	ComparisonID string    `json:"comparison_id"`
	DisplayName  string    `json:"display_name"`
	Token        string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
}

type ProCon struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	RaterID   string    `json:"rater_id"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID           string    `json:"id"`
	ComparisonID string    `json:"comparison_id"`
	RaterID      string    `json:"rater_id"`
	DisplayName  string    `json:"display_name"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

type ComparisonDetail struct {
	Comparison Comparison      `json:"comparison"`
	Items      []CandidateItem `json:"items"`
	Criteria   []Criterion     `json:"criteria"`
	Raters     []Rater         `json:"raters"`
	ProCons    []ProCon        `json:"pro_cons"`
	Comments   []Comment       `json:"comments"`
}

// Decision result types

// CriterionScore is one criterion's share of an item's score
type CriterionScore struct {
	CriterionID string   `json:"criterion_id"`
	Name        string   `json:"name"`
	Weight      float64  `json:"weight"`
	Mean        *float64 `json:"mean"` // nil when nobody rated it
	Ratings     int      `json:"ratings"`
}

type ItemResult struct {
	ItemID           string           `json:"item_id"`
	Title            string           `json:"title"`
	Price            float64          `json:"price"`
	PriceDisplay     string           `json:"price_display,omitempty"`
	Position         int              `json:"position"`
	Score            *float64         `json:"score"`
	DisplayScore     *float64         `json:"display_score,omitempty"` // score on a 0-10 scale, presentation only
	RatedCriteria    int              `json:"rated_criteria"`
	InsufficientData bool             `json:"insufficient_data"`
	Rank             int              `json:"rank"` // 1-indexed; 0 when the score is undefined
	Criteria         []CriterionScore `json:"criteria"`
}

type DecisionResult struct {
	ComparisonID  string       `json:"comparison_id"`
	RatingVersion int64        `json:"rating_version"`
	RaterIDs      []string     `json:"rater_ids"`
	Rankings      []ItemResult `json:"rankings"`
	WinnerItemID  *string      `json:"winner_item_id"`
	Agreement     *float64     `json:"agreement"`

	// Quick stats
	AverageScore        *float64 `json:"average_score"` // mean of the defined item scores
	AverageDisplayScore *float64 `json:"average_display_score,omitempty"`
	PriceMin            *float64 `json:"price_min"`
	PriceMax            *float64 `json:"price_max"`
	PriceRangeDisplay   string   `json:"price_range_display,omitempty"`
}

type DecisionSnapshot struct {
	ID                    string         `json:"id"`
	ComparisonID          string         `json:"comparison_id"`
	ChosenItemID          string         `json:"chosen_item_id"`
	MatchedComputedWinner bool           `json:"matched_computed_winner"`
	ComputedAt            time.Time      `json:"computed_at"`
	Result                DecisionResult `json:"result"`
}

// Presets

type PresetCriterion struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

type Preset struct {
	Name     string            `json:"name" yaml:"name"`
	Type     string            `json:"comparison_type" yaml:"type"`
	Criteria []PresetCriterion `json:"criteria" yaml:"criteria"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
