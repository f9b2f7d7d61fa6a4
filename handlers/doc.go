// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the household-pick API.

# Handler Types

Each handler is a struct holding the store, the decision service and config:

  - ComparisonHandler: owner operations (create, items, criteria, activate, confirm)
  - RatingHandler: joining, ratings and pros/cons
  - ResultsHandler: comparison detail, results, decisions and presets

	comparisonHandler := handlers.NewComparisonHandler(st, svc, presets, cfg)

# Comparison Lifecycle

Comparisons progress through three states: draft → active → confirmed

	POST /comparisons                → CreateComparison (returns admin_key)
	POST /comparisons/{id}/items     → AddItem (draft only, at most 5)
	POST /comparisons/{id}/criteria  → AddCriterion (draft only)
	POST /comparisons/{id}/activate  → Activate (needs 2-5 items, generates share_slug)
	POST /comparisons/{id}/confirm   → ConfirmDecision (freezes ratings)

Owner operations require the X-Admin-Key header. Confirming an item other
than the computed winner needs "override": true; whether the choice matched
the winner is stored either way.

# Rating Flow

	POST /comparisons/{slug}/join    → Join (returns rater_token)
	PUT  /comparisons/{slug}/ratings → RecordRating (create or replace)

Rater operations require the X-Rater-Token header.

# Errors

Engine and store errors map onto status codes in one place:

	validation failure     → 400
	missing or bad token   → 401
	unknown entity         → 404
	wrong state, confirmed → 409
	anything else          → 500
*/
package handlers
