// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine and its repository.
var (
	// ErrNotFound indicates an unknown comparison, item, criterion or rater.
	ErrNotFound = errors.New("not found")

	// ErrFrozen indicates a write attempted after the decision was confirmed.
	ErrFrozen = errors.New("comparison decision is confirmed")

	// ErrInvalid indicates input that failed validation.
	ErrInvalid = errors.New("validation failed")
)

// ValidationError describes a rejected input. It unwraps to ErrInvalid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Invalid creates a ValidationError for field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError names the missing entity. It unwraps to ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound creates a NotFoundError.
func NotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}
