// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/middleware"
	"github.com/danielhkuo/household-pick/store"
)

// writeError maps engine and store errors onto HTTP responses.
// Anything unrecognized is logged and reported as a 500 with failMsg.
func writeError(w http.ResponseWriter, r *http.Request, err error, failMsg string) {
	var ve *decision.ValidationError
	var nf *decision.NotFoundError

	switch {
	case errors.As(err, &ve) && ve.Field == "status":
		middleware.ErrorResponse(w, http.StatusConflict, ve.Reason)
	case errors.As(err, &ve):
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Field+": "+ve.Reason)
	case errors.As(err, &nf):
		middleware.ErrorResponse(w, http.StatusNotFound, capitalize(nf.Kind)+" not found")
	case errors.Is(err, decision.ErrFrozen):
		middleware.ErrorResponse(w, http.StatusConflict, "Decision already confirmed")
	case errors.Is(err, decision.ErrStaleVersion):
		middleware.ErrorResponse(w, http.StatusConflict, "Ratings changed while confirming, try again")
	case errors.Is(err, store.ErrNameTaken):
		middleware.ErrorResponse(w, http.StatusConflict, "Display name already taken")
	default:
		slog.Error(failMsg, "error", err, "request_id", middleware.RequestID(r.Context()))
		middleware.ErrorResponse(w, http.StatusInternalServerError, failMsg)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
