// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request IDs

WithRequestID wraps the whole mux. It reuses an X-Request-ID sent by the
client or generates a UUID, echoes it in the response and exposes it to
handlers through RequestID(ctx).

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP, request_id) and completion
(status, duration_ms).

# Metrics

HTTPMetrics counts requests and observes latency per route pattern:

	m := middleware.NewHTTPMetrics(registry)
	mux.HandleFunc(pattern, m.Instrument(pattern, handler))

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows headers Content-Type, Authorization, X-Admin-Key, X-Rater-Token
and X-Request-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseAndValidate decodes a body and checks its validate struct tags:

	var req models.AddCriterionRequest
	if err := middleware.ParseAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
*/
package middleware
