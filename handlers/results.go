// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/middleware"
	"github.com/danielhkuo/household-pick/models"
	"github.com/danielhkuo/household-pick/presets"
	"github.com/danielhkuo/household-pick/store"
)

// ResultsHandler serves read-only views of a shared comparison
type ResultsHandler struct {
	store   *store.Store
	svc     *decision.Service
	presets *presets.Registry
}

func NewResultsHandler(st *store.Store, svc *decision.Service, reg *presets.Registry) *ResultsHandler {
	return &ResultsHandler{store: st, svc: svc, presets: reg}
}

// GetComparison handles GET /comparisons/{slug}
func (h *ResultsHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}

	detail, err := h.store.GetDetail(r.Context(), comp)
	if err != nil {
		writeError(w, r, err, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// GetResults handles GET /comparisons/{slug}/results?raters=id1,id2
// Without raters every rating counts.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}

	result, err := h.svc.Evaluate(r.Context(), comp.ID, parseRaters(r.URL.Query().Get("raters")))
	if err != nil {
		writeError(w, r, err, "Failed to compute results")
		return
	}

	decorateResult(&result)
	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetDecision handles GET /comparisons/{slug}/decision
// Returns 404 until the owner confirms a decision.
func (h *ResultsHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}

	snap, err := h.store.GetDecisionSnapshot(r.Context(), comp.ID)
	if err != nil {
		writeError(w, r, err, "Database error")
		return
	}

	decorateResult(&snap.Result)
	middleware.JSONResponse(w, http.StatusOK, snap)
}

// ListComments handles GET /comparisons/{slug}/comments
func (h *ResultsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comp, ok := comparisonBySlug(w, r, h.store)
	if !ok {
		return
	}

	comments, err := h.store.ListComments(r.Context(), comp.ID)
	if err != nil {
		writeError(w, r, err, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CommentsResponse{Comments: comments})
}

// ListPresets handles GET /presets
func (h *ResultsHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.PresetsResponse{
		Presets: h.presets.All(),
	})
}

func parseRaters(raw string) []string {
	if raw == "" {
		return nil
	}
	var raters []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			raters = append(raters, id)
		}
	}
	return raters
}

// decorateResult fills presentation-only fields. Scores stay on the 1-5
// scale; DisplayScore doubles them onto 0-10.
func decorateResult(result *models.DecisionResult) {
	for i := range result.Rankings {
		ir := &result.Rankings[i]
		ir.PriceDisplay = formatPrice(ir.Price)
		ir.DisplayScore = displayScore(ir.Score)
	}

	result.AverageDisplayScore = displayScore(result.AverageScore)
	if result.PriceMin != nil && result.PriceMax != nil {
		result.PriceRangeDisplay = formatPrice(*result.PriceMin) + " - " + formatPrice(*result.PriceMax)
	}
}

func displayScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	display := math.Round(*score*2*100) / 100
	return &display
}

func formatPrice(price float64) string {
	return "$" + humanize.CommafWithDigits(price, 2)
}
