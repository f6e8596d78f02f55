// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for request identity,
// authorization, and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/karanbisht-123/katchincms-go/internal/model"
)

// ContextKey is the type for request context keys set by this package.
type ContextKey string

// ContextKeyIdentity is the context key holding the caller identity.
const ContextKeyIdentity ContextKey = "identity"

// Trusted headers set by the authenticating gateway in front of the API.
const (
	HeaderUserID   = "X-Auth-User-ID"
	HeaderUserRole = "X-Auth-User-Role"
)

// Identity extracts the caller identity from gateway headers and stores
// it in the request context. Requests without the headers pass through
// anonymous; RequireAuth gates the routes that need a caller.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(HeaderUserID)
		if rawID == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || userID <= 0 {
			writeJSONError(w, http.StatusUnauthorized, "Invalid authentication headers")
			return
		}

		role := r.Header.Get(HeaderUserRole)
		if role != model.RoleAdmin && role != model.RoleAuthor {
			writeJSONError(w, http.StatusUnauthorized, "Invalid authentication headers")
			return
		}

		ident := model.Identity{UserID: userID, Role: role}
		ctx := context.WithValue(r.Context(), ContextKeyIdentity, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity returns the caller identity from the request context.
func GetIdentity(r *http.Request) (model.Identity, bool) {
	ident, ok := r.Context().Value(ContextKeyIdentity).(model.Identity)
	return ident, ok
}

// RequireAuth rejects requests without an authenticated identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests unless the caller has the admin role.
// Implies RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := GetIdentity(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !ident.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSONError writes the API error envelope. Mirrors the handler
// package's error shape so middleware rejections look the same to
// clients.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
		"errorId": uuid.New().String(),
	})
}
