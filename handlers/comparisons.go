// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/household-pick/auth"
	"github.com/danielhkuo/household-pick/cliparse"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/middleware"
	"github.com/danielhkuo/household-pick/models"
	"github.com/danielhkuo/household-pick/presets"
	"github.com/danielhkuo/household-pick/store"
)

// ComparisonHandler serves the owner's side of a comparison
type ComparisonHandler struct {
	store   *store.Store
	svc     *decision.Service
	presets *presets.Registry
	cfg     cliparse.Config
}

func NewComparisonHandler(st *store.Store, svc *decision.Service, reg *presets.Registry, cfg cliparse.Config) *ComparisonHandler {
	return &ComparisonHandler{store: st, svc: svc, presets: reg, cfg: cfg}
}

// requireOwner checks the X-Admin-Key header against the comparison ID
func (h *ComparisonHandler) requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	comparisonID := r.PathValue("id")
	if comparisonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "comparison_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(comparisonID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return comparisonID, true
}

// CreateComparison handles POST /comparisons
func (h *ComparisonHandler) CreateComparison(w http.ResponseWriter, r *http.Request) {
	var req models.CreateComparisonRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	comparisonType := req.ComparisonType
	var seed []models.PresetCriterion
	if req.Preset != "" {
		p, ok := h.presets.Lookup(req.Preset)
		if !ok {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown preset: "+req.Preset)
			return
		}
		seed = p.Criteria
		if comparisonType == "" {
			comparisonType = p.Type
		}
	}

	comp, err := h.store.CreateComparison(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.OwnerName), comparisonType, seed)
	if err != nil {
		writeError(w, r, err, "Failed to create comparison")
		return
	}

	slog.Info("comparison created",
		"comparison_id", comp.ID,
		"owner", comp.OwnerName,
		"type", comp.Type,
		"preset", req.Preset,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateComparisonResponse{
		ComparisonID: comp.ID,
		AdminKey:     auth.GenerateAdminKey(comp.ID, h.cfg.AdminKeySalt),
	})
}

// GetComparisonAdmin handles GET /comparisons/{id}/admin
func (h *ComparisonHandler) GetComparisonAdmin(w http.ResponseWriter, r *http.Request) {
	comparisonID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	comp, err := h.store.GetComparison(r.Context(), comparisonID)
	if err != nil {
		writeError(w, r, err, "Failed to load comparison")
		return
	}

	detail, err := h.store.GetDetail(r.Context(), comp)
	if err != nil {
		writeError(w, r, err, "Failed to load comparison")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// AddItem handles POST /comparisons/{id}/items
func (h *ComparisonHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	comparisonID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	item, err := h.store.AddCandidate(r.Context(), comparisonID, req)
	if err != nil {
		writeError(w, r, err, "Failed to add item")
		return
	}

	slog.Info("item added", "comparison_id", comparisonID, "item_id", item.ID, "position", item.Position)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		ItemID:   item.ID,
		Position: item.Position,
	})
}

// AddCriterion handles POST /comparisons/{id}/criteria
func (h *ComparisonHandler) AddCriterion(w http.ResponseWriter, r *http.Request) {
	comparisonID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	var req models.AddCriterionRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.store.AddCriterion(r.Context(), comparisonID, req.Name, req.Weight)
	if err != nil {
		writeError(w, r, err, "Failed to add criterion")
		return
	}

	slog.Info("criterion added", "comparison_id", comparisonID, "criterion", c.Name, "weight", c.Weight)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCriterionResponse{
		CriterionID: c.ID,
		Name:        c.Name,
	})
}

// Activate handles POST /comparisons/{id}/activate
func (h *ComparisonHandler) Activate(w http.ResponseWriter, r *http.Request) {
	comparisonID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	shareSlug := auth.GenerateShareSlug(comparisonID, h.cfg.ShareSlugSalt)
	if _, err := h.store.Activate(r.Context(), comparisonID, shareSlug); err != nil {
		writeError(w, r, err, "Failed to activate comparison")
		return
	}

	slog.Info("comparison activated", "comparison_id", comparisonID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.ActivateComparisonResponse{
		ShareSlug: shareSlug,
		ShareURL:  strings.TrimRight(h.cfg.BaseURL, "/") + "/comparisons/" + shareSlug,
	})
}

// ConfirmDecision handles POST /comparisons/{id}/confirm
func (h *ComparisonHandler) ConfirmDecision(w http.ResponseWriter, r *http.Request) {
	comparisonID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	var req models.ConfirmDecisionRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.svc.ConfirmDecision(r.Context(), comparisonID, req.ItemID, req.Override, req.Raters)
	if err != nil {
		writeError(w, r, err, "Failed to confirm decision")
		return
	}

	slog.Info("decision confirmed",
		"comparison_id", comparisonID,
		"item_id", snap.ChosenItemID,
		"matched_computed_winner", snap.MatchedComputedWinner,
		"rating_version", snap.Result.RatingVersion,
	)

	decorateResult(&snap.Result)
	middleware.JSONResponse(w, http.StatusOK, models.ConfirmDecisionResponse{
		ChosenItemID:          snap.ChosenItemID,
		MatchedComputedWinner: snap.MatchedComputedWinner,
		ConfirmedAt:           snap.ComputedAt,
		Snapshot:              snap,
	})
}
