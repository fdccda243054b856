// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// query parsing, validation, and the middleware stack used by the API server.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteBadRequest(w, "root is required")
//	httputil.WriteDetailedError(w, http.StatusUnprocessableEntity, err,
//		map[string]string{"project": path})
//
// # Request Parsing
//
//	var req ReloadRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	roots := httputil.ParseQueryList(r, "root")
//	depth, err := httputil.ParseQueryInt(r, "depth", -1)
//
// # Validation
//
//	httputil.ValidateAll(w,
//		httputil.RequireNonEmpty(roots, "root"),
//		httputil.RequireAtLeast(depth, -1, "depth"),
//	)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(log),
//		httputil.RecoveryMiddleware(log),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil
