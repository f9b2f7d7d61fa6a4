// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/household-pick/cliparse"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/handlers"
	"github.com/danielhkuo/household-pick/middleware"
	"github.com/danielhkuo/household-pick/presets"
	"github.com/danielhkuo/household-pick/store"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	reg, err := presets.Load(cfg.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}

	// Each router owns its registry so tests can build several
	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(metricsReg)

	// Initialize handlers
	st := store.New(db)
	svc := decision.NewService(st, decision.Options{
		CacheTTL: cfg.ResultCacheTTL,
		Metrics:  decision.NewMetrics(metricsReg),
	})
	comparisonHandler := handlers.NewComparisonHandler(st, svc, reg, cfg)
	ratingHandler := handlers.NewRatingHandler(st, svc)
	resultsHandler := handlers.NewResultsHandler(st, svc, reg)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, httpMetrics.Instrument(pattern, middleware.WithLogging(h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	// Comparison management (owner, X-Admin-Key)
	handle("POST /comparisons", comparisonHandler.CreateComparison)
	handle("GET /comparisons/{id}/admin", comparisonHandler.GetComparisonAdmin)
	handle("POST /comparisons/{id}/items", comparisonHandler.AddItem)
	handle("POST /comparisons/{id}/criteria", comparisonHandler.AddCriterion)
	handle("POST /comparisons/{id}/activate", comparisonHandler.Activate)
	handle("POST /comparisons/{id}/confirm", comparisonHandler.ConfirmDecision)

	// Rating (household, share slug + X-Rater-Token)
	handle("POST /comparisons/{slug}/join", ratingHandler.Join)
	handle("PUT /comparisons/{slug}/ratings", ratingHandler.RecordRating)
	handle("GET /comparisons/{slug}/my-ratings", ratingHandler.GetMyRatings)
	handle("POST /comparisons/{slug}/items/{item}/procons", ratingHandler.AddProCon)
	handle("POST /comparisons/{slug}/comments", ratingHandler.AddComment)

	// Results (public, share slug)
	handle("GET /comparisons/{slug}", resultsHandler.GetComparison)
	handle("GET /comparisons/{slug}/results", resultsHandler.GetResults)
	handle("GET /comparisons/{slug}/decision", resultsHandler.GetDecision)
	handle("GET /comparisons/{slug}/comments", resultsHandler.ListComments)
	handle("GET /presets", resultsHandler.ListPresets)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("household-pick API v1"))
	})

	return mux, nil
}
