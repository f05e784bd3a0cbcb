// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for request identity,
// rate limiting and request logging.
package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// ContextKey is a typed key for request context values.
type ContextKey string

// ContextKeyUserID is the context key for the acting user's ID.
const ContextKeyUserID ContextKey = "user_id"

// DefaultUserID is assumed when a request carries no X-User-ID header.
// The single-operator deployment runs everything as this user.
const DefaultUserID int64 = 1

// WithUser resolves the acting user from the X-User-ID header and puts
// the ID in the request context. Requests without the header act as
// DefaultUserID; a malformed header is rejected.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := DefaultUserID
		if raw := r.Header.Get("X-User-ID"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				WriteAPIError(w, http.StatusBadRequest, "bad_request", "Invalid X-User-ID header", nil)
				return
			}
			userID = parsed
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the acting user's ID from the request context.
// Falls back to DefaultUserID when the middleware did not run.
func GetUserID(r *http.Request) int64 {
	if id, ok := r.Context().Value(ContextKeyUserID).(int64); ok {
		return id
	}
	return DefaultUserID
}
