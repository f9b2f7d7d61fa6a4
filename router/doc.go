// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the household-pick API.

# Route Registration

NewRouter loads criteria presets, builds the store and decision service and
returns a configured http.ServeMux:

	mux, err := router.NewRouter(db, cfg)

Every API route is wrapped with request logging and per-route Prometheus
metrics. The metrics registry belongs to the router and is served on
/metrics.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics
	GET /presets

Comparison management (owner, requires X-Admin-Key):

	POST /comparisons                - Create comparison (optional preset)
	GET  /comparisons/{id}/admin     - Full comparison detail
	POST /comparisons/{id}/items     - Add candidate item (draft only)
	POST /comparisons/{id}/criteria  - Add criterion (draft only)
	POST /comparisons/{id}/activate  - Open for rating
	POST /comparisons/{id}/confirm   - Record the final choice

Rating (household, uses share slug; writes require X-Rater-Token):

	POST /comparisons/{slug}/join                 - Join as a rater
	PUT  /comparisons/{slug}/ratings              - Record or replace a rating
	GET  /comparisons/{slug}/my-ratings           - Own ratings
	POST /comparisons/{slug}/items/{item}/procons - Add a pro or con

Results (public):

	GET /comparisons/{slug}          - Comparison, items, criteria, raters
	GET /comparisons/{slug}/results  - Ranked scores, winner, agreement
	GET /comparisons/{slug}/decision - Confirmed decision snapshot
*/
package router
