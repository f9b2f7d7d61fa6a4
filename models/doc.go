// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, validated with go-playground/validator tags:

  - CreateComparisonRequest: name, owner_name, comparison_type, preset
  - AddCandidateRequest: title, price, store, wishlist_item_id
  - AddCriterionRequest: name, weight
  - JoinComparisonRequest: display_name
  - RecordRatingRequest: item_id, criterion_id, value (1-5)
  - AddProConRequest: kind, body
  - ConfirmDecisionRequest: item_id, override

# Domain Types

  - Comparison: metadata, lifecycle state, rating version, confirmed choice
  - CandidateItem: one of 2-5 wishlist items under comparison
  - Criterion: weighted evaluation dimension
  - Rater: household member identified by a rater token
  - Rating: one 1-5 value for an (item, criterion, rater) triple
  - ProCon: free-text note on an item
  - DecisionResult: ranked items, winner and agreement
  - DecisionSnapshot: the result recorded when a decision was confirmed

# Constants

Status values:

	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusConfirmed = "confirmed"

Comparison types:

	TypeSimple   = "simple"
	TypeWeighted = "weighted"
	TypeProCon   = "pro_con"
*/
package models
