// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/thrifttags/internal/logging"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// TokenCookieName is the cookie checked when no Authorization header is sent.
const TokenCookieName = "token"

// Identity is the authenticated caller.
type Identity struct {
	Email    string
	Username string
}

// ContextWithIdentity stores claims in ctx.
func ContextWithIdentity(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// IdentityFromContext returns the caller identity stored by Authenticate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok || claims == nil {
		return Identity{}, false
	}
	return Identity{Email: claims.Email(), Username: claims.Username}, true
}

// UnauthorizedFunc writes the response for a rejected request.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates requests with JWTs.
type Middleware struct {
	jwtManager   *JWTManager
	unauthorized UnauthorizedFunc
}

// NewMiddleware returns a Middleware that answers rejected requests with a
// plain 401. Use OnUnauthorized to customize the response.
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		unauthorized: func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		},
	}
}

// OnUnauthorized replaces the rejection handler.
func (m *Middleware) OnUnauthorized(fn UnauthorizedFunc) *Middleware {
	if fn != nil {
		m.unauthorized = fn
	}
	return m
}

// Authenticate rejects requests without a valid token and stores the
// claims in the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			m.unauthorized(w, r, err)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("token validation failed")
			m.unauthorized(w, r, fmt.Errorf("unauthorized: invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), claims)))
	})
}

// extractToken reads the Authorization header, falling back to the cookie.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil || cookie.Value == "" {
			return "", fmt.Errorf("unauthorized: missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("unauthorized: invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
