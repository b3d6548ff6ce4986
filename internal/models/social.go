// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package models

// Review is one user's rating of a store.
type Review struct {
	ID         string  `json:"id,omitempty"`
	OwnerEmail string  `json:"owner_email"`
	StoreName  string  `json:"store_name"`
	Rating     float64 `json:"rating"`
	Content    string  `json:"content"`
	Date       string  `json:"date"`
}

// ReviewDraft is the caller input for a new review.
type ReviewDraft struct {
	StoreName string  `json:"store_name" validate:"required,max=200"`
	Rating    float64 `json:"rating" validate:"gte=1,lte=5,halfstep"`
	Content   string  `json:"content" validate:"max=5000"`
}

// UserProfile is the users collection document, keyed by email.
type UserProfile struct {
	Email          string   `json:"email"`
	Username       string   `json:"username"`
	Bio            string   `json:"bio"`
	Friends        []string `json:"friends"`
	FriendRequests []string `json:"friend_requests"`
}

// HasFriend reports whether email is in p.Friends.
func (p UserProfile) HasFriend(email string) bool {
	return containsString(p.Friends, email)
}

// HasRequestFrom reports whether email has a pending request to p.
func (p UserProfile) HasRequestFrom(email string) bool {
	return containsString(p.FriendRequests, email)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// AddUnique appends s to list unless already present.
func AddUnique(list []string, s string) []string {
	if containsString(list, s) {
		return list
	}
	return append(list, s)
}

// RemoveString returns list without any occurrence of s.
func RemoveString(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
