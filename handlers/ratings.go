// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/middleware"
	"github.com/danielhkuo/household-pick/models"
	"github.com/danielhkuo/household-pick/store"
)

// RatingHandler serves household members who rate a shared comparison
type RatingHandler struct {
	store *store.Store
	svc   *decision.Service
}

func NewRatingHandler(st *store.Store, svc *decision.Service) *RatingHandler {
	return &RatingHandler{store: st, svc: svc}
}

// comparisonBySlug resolves the {slug} path value
func comparisonBySlug(w http.ResponseWriter, r *http.Request, st *store.Store) (models.Comparison, bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.Comparison{}, false
	}

	comp, err := st.GetComparisonBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, r, err, "Database error")
		return models.Comparison{}, false
	}
	return comp, true
}

// requireRater resolves the X-Rater-Token header within comp
func (h *RatingHandler) requireRater(w http.ResponseWriter, r *http.Request, comp models.Comparison) (models.Rater, bool) {
	token := r.Header.Get("X-Rater-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Rater-Token header is required")
		return models.Rater{}, false
	}

	rater, err := h.store.GetRaterByToken(r.Context(), comp.ID, token)
	if errors.Is(err, decision.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid rater token")
		return models.Rater{}, false
	}
	if err != nil {
		writeError(w, r, err, "Database error")
		return models.Rater{}, false
	}
	return rater, true
}

// Join handles POST /comparisons/{slug}/join
func (h *RatingHandler) Join(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}

	var req models.JoinComparisonRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	rater, err := h.store.JoinRater(r.Context(), comp.ID, strings.TrimSpace(req.DisplayName))
	if err != nil {
		writeError(w, r, err, "Failed to join comparison")
		return
	}

	slog.Info("rater joined", "comparison_id", comp.ID, "rater_id", rater.ID, "display_name", rater.DisplayName)

	middleware.JSONResponse(w, http.StatusCreated, models.JoinComparisonResponse{
		RaterID:    rater.ID,
		RaterToken: rater.Token,
	})
}

// RecordRating handles PUT /comparisons/{slug}/ratings
// A repeated rating for the same item and criterion replaces the earlier one.
func (h *RatingHandler) RecordRating(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}
	rater, ok := h.requireRater(w, r, comp)
	if !ok {
		return
	}

	var req models.RecordRatingRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	rating, err := h.svc.RecordRating(r.Context(), comp.ID, req.ItemID, req.CriterionID, rater.ID, req.Value)
	if err != nil {
		writeError(w, r, err, "Failed to record rating")
		return
	}

	slog.Info("rating recorded",
		"comparison_id", comp.ID,
		"rater_id", rater.ID,
		"item_id", rating.ItemID,
		"criterion_id", rating.CriterionID,
	)

	middleware.JSONResponse(w, http.StatusOK, models.RecordRatingResponse{
		Rating:  rating,
		Message: "Rating recorded",
	})
}

// GetMyRatings handles GET /comparisons/{slug}/my-ratings
func (h *RatingHandler) GetMyRatings(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}
	rater, ok := h.requireRater(w, r, comp)
	if !ok {
		return
	}

	ratings, err := h.store.ListRatingsByRater(r.Context(), comp.ID, rater.ID)
	if err != nil {
		writeError(w, r, err, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyRatingsResponse{
		RaterID: rater.ID,
		Ratings: ratings,
	})
}

// AddProCon handles POST /comparisons/{slug}/items/{item}/procons
func (h *RatingHandler) AddProCon(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}
	rater, ok := h.requireRater(w, r, comp)
	if !ok {
		return
	}

	var req models.AddProConRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	pc, err := h.store.AddProCon(r.Context(), comp.ID, r.PathValue("item"), rater.ID, req.Kind, strings.TrimSpace(req.Body))
	if err != nil {
		writeError(w, r, err, "Failed to add pro/con")
		return
	}

	slog.Info("pro/con added", "comparison_id", comp.ID, "item_id", pc.ItemID, "kind", pc.Kind)

	middleware.JSONResponse(w, http.StatusCreated, pc)
}

// AddComment handles POST /comparisons/{slug}/comments
func (h *RatingHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}
	rater, ok := h.requireRater(w, r, comp)
	if !ok {
		return
	}

	var req models.AddCommentRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.store.AddComment(r.Context(), comp.ID, rater.ID, req.Body)
	if err != nil {
		writeError(w, r, err, "Failed to add comment")
		return
	}

	slog.Info("comment added", "comparison_id", comp.ID, "rater_id", rater.ID, "comment_id", c.ID)

	middleware.JSONResponse(w, http.StatusCreated, c)
}
