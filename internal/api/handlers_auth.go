// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"net/http"

	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/logging"
)

// Signup creates an account and logs the user in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("username", session.Username).Msg("account created")
	h.setSessionCookie(w, r, session)
	NewResponseWriter(w, r).Created(session)
}

// Login verifies credentials and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookie(w, r, session)
	NewResponseWriter(w, r).Success(session)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, s auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil || h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
