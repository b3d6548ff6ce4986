// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/lifecycle"
	"github.com/tomtom215/thrifttags/internal/models"
	"github.com/tomtom215/thrifttags/internal/reviews"
)

// reviewView adds the star breakdown to a review.
type reviewView struct {
	models.Review
	Stars reviews.StarCounts `json:"stars"`
}

func reviewViews(list []models.Review) []reviewView {
	out := make([]reviewView, 0, len(list))
	for _, rv := range list {
		out = append(out, reviewView{Review: rv, Stars: reviews.Stars(rv.Rating)})
	}
	return out
}

// emailParam reads and normalizes the {email} path parameter.
func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return auth.NormalizeEmail(raw)
}

// GetProfile returns the caller's profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := h.friends.Profile(r.Context(), me)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(profile)
}

// UpdateProfile changes the caller's bio.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req ProfileUpdate
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := h.friends.UpdateBio(r.Context(), me, req.Bio)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(profile)
}

// ListReviews returns the caller's reviews, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.reviews.ListByOwner(r.Context(), me)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(reviewViews(list), len(list), "")
}

// CreateReview stores a review by the caller.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var draft models.ReviewDraft
	if err := decodeBody(w, r, &draft); err != nil {
		respondError(w, r, err)
		return
	}
	review, err := h.reviews.Create(r.Context(), me, draft)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(reviewViews([]models.Review{review})[0])
}

// ListFriends returns the caller's friends.
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.friends.Friends(r.Context(), me)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(list, len(list), "")
}

// ListFriendRequests returns the profiles that sent the caller a request.
func (h *Handler) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.friends.Requests(r.Context(), me)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(list, len(list), "")
}

// SearchUsers finds profiles by exact username.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.friends.SearchByUsername(r.Context(), me, r.URL.Query().Get("username"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(list, len(list), "")
}

// SendFriendRequest asks another user to be friends.
func (h *Handler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req FriendRequestBody
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.friends.SendRequest(r.Context(), me, auth.NormalizeEmail(req.Email)); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// AcceptFriendRequest accepts the request from {email}.
func (h *Handler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.friends.Accept(r.Context(), me, emailParam(r)); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// RejectFriendRequest drops the request from {email}.
func (h *Handler) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.friends.Reject(r.Context(), me, emailParam(r)); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// RemoveFriend ends the friendship with {email} on both sides.
func (h *Handler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.friends.Remove(r.Context(), me, emailParam(r)); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// FriendEvents lists a friend's public active events without expiring
// anything.
func (h *Handler) FriendEvents(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	friend := emailParam(r)
	if err := h.friends.RequireFriend(r.Context(), me, friend); err != nil {
		respondError(w, r, err)
		return
	}
	events, err := h.registry.PeekActive(r.Context(), friend, h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	events = lifecycle.PublicEvents(events)
	NewResponseWriter(w, r).List(h.views(events), len(events), "")
}

// FriendReviews lists a friend's reviews.
func (h *Handler) FriendReviews(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	friend := emailParam(r)
	if err := h.friends.RequireFriend(r.Context(), me, friend); err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.reviews.ListByOwner(r.Context(), friend)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(reviewViews(list), len(list), "")
}
