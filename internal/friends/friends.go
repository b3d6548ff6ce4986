// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package friends manages user profiles, friend requests and friend lists.
//
// Profiles live in the users collection keyed by email. A request from A to
// B is recorded on B's profile; accepting it adds each user to the other's
// friend list.
package friends

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/models"
)

// MaxBioLength bounds the profile bio.
const MaxBioLength = 500

// Service implements the social operations.
type Service struct {
	store docstore.Store
}

// NewService returns a Service backed by store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Profile returns the profile of email.
func (s *Service) Profile(ctx context.Context, email string) (models.UserProfile, error) {
	if email == "" {
		return models.UserProfile{}, models.NewValidationError("email", "an identity is required")
	}
	p, err := docstore.GetDecoded[models.UserProfile](ctx, s.store, models.UsersCollection, email)
	if err != nil {
		return models.UserProfile{}, storeErr("get", err)
	}
	return normalize(p), nil
}

// UpdateBio replaces the bio of email and returns the updated profile.
func (s *Service) UpdateBio(ctx context.Context, email, bio string) (models.UserProfile, error) {
	bio = strings.TrimSpace(bio)
	if len(bio) > MaxBioLength {
		return models.UserProfile{}, models.NewValidationError("bio", "must be at most 500 characters")
	}
	var updated models.UserProfile
	err := s.modify(ctx, email, func(p *models.UserProfile) error {
		p.Bio = bio
		updated = *p
		return nil
	})
	return updated, err
}

// SearchByUsername returns profiles whose username equals username exactly,
// excluding self.
func (s *Service) SearchByUsername(ctx context.Context, self, username string) ([]models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("username", "is required")
	}
	found, err := docstore.QueryDecoded[models.UserProfile](ctx, s.store, models.UsersCollection, "username", username)
	if err != nil {
		return nil, storeErr("query", err)
	}
	out := make([]models.UserProfile, 0, len(found))
	for _, p := range found {
		if p.Email == self {
			continue
		}
		out = append(out, normalize(p))
	}
	return out, nil
}

// SendRequest records a friend request from -> to on to's profile.
// Requests to self or to an existing friend are rejected; a repeated
// request is a no-op.
func (s *Service) SendRequest(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return models.NewValidationError("email", "both identities are required")
	}
	if from == to {
		return models.NewValidationError("email", "cannot send a friend request to yourself")
	}
	err := s.modify(ctx, to, func(p *models.UserProfile) error {
		if p.HasFriend(from) {
			return models.NewValidationError("email", "already friends")
		}
		p.FriendRequests = models.AddUnique(p.FriendRequests, from)
		return nil
	})
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Str("from", from).Str("to", to).Msg("friend request sent")
	return nil
}

// Accept turns the pending request from -> me into a friendship.
func (s *Service) Accept(ctx context.Context, me, from string) error {
	err := s.modify(ctx, me, func(p *models.UserProfile) error {
		if !p.HasRequestFrom(from) {
			return models.ErrNotFound
		}
		p.FriendRequests = models.RemoveString(p.FriendRequests, from)
		p.Friends = models.AddUnique(p.Friends, from)
		return nil
	})
	if err != nil {
		return err
	}

	err = s.modify(ctx, from, func(p *models.UserProfile) error {
		p.Friends = models.AddUnique(p.Friends, me)
		p.FriendRequests = models.RemoveString(p.FriendRequests, me)
		return nil
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("me", me).Str("friend", from).
			Msg("friendship recorded on one side only")
		return err
	}
	logging.Ctx(ctx).Debug().Str("me", me).Str("friend", from).Msg("friend request accepted")
	return nil
}

// Reject drops the pending request from -> me.
func (s *Service) Reject(ctx context.Context, me, from string) error {
	return s.modify(ctx, me, func(p *models.UserProfile) error {
		if !p.HasRequestFrom(from) {
			return models.ErrNotFound
		}
		p.FriendRequests = models.RemoveString(p.FriendRequests, from)
		return nil
	})
}

// Remove ends the friendship between me and other on both sides.
func (s *Service) Remove(ctx context.Context, me, other string) error {
	err := s.modify(ctx, me, func(p *models.UserProfile) error {
		if !p.HasFriend(other) {
			return models.ErrNotFound
		}
		p.Friends = models.RemoveString(p.Friends, other)
		return nil
	})
	if err != nil {
		return err
	}
	err = s.modify(ctx, other, func(p *models.UserProfile) error {
		p.Friends = models.RemoveString(p.Friends, me)
		return nil
	})
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

// Friends returns the profiles of me's friends sorted by username. Friends
// whose profile no longer exists are skipped.
func (s *Service) Friends(ctx context.Context, me string) ([]models.UserProfile, error) {
	p, err := s.Profile(ctx, me)
	if err != nil {
		return nil, err
	}
	return s.profiles(ctx, p.Friends)
}

// Requests returns the profiles of users with a pending request to me.
func (s *Service) Requests(ctx context.Context, me string) ([]models.UserProfile, error) {
	p, err := s.Profile(ctx, me)
	if err != nil {
		return nil, err
	}
	return s.profiles(ctx, p.FriendRequests)
}

// AreFriends reports whether other is in me's friend list.
func (s *Service) AreFriends(ctx context.Context, me, other string) (bool, error) {
	p, err := s.Profile(ctx, me)
	if err != nil {
		return false, err
	}
	return p.HasFriend(other), nil
}

// RequireFriend returns models.ErrForbidden unless other is me's friend.
func (s *Service) RequireFriend(ctx context.Context, me, other string) error {
	ok, err := s.AreFriends(ctx, me, other)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrForbidden
	}
	return nil
}

func (s *Service) profiles(ctx context.Context, emails []string) ([]models.UserProfile, error) {
	out := make([]models.UserProfile, 0, len(emails))
	for _, email := range emails {
		p, err := docstore.GetDecoded[models.UserProfile](ctx, s.store, models.UsersCollection, email)
		if errors.Is(err, models.ErrNotFound) {
			logging.Ctx(ctx).Debug().Str("email", email).Msg("skipping missing profile")
			continue
		}
		if err != nil {
			return nil, storeErr("get", err)
		}
		out = append(out, normalize(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out, nil
}

// modify applies fn to the stored profile of email atomically.
func (s *Service) modify(ctx context.Context, email string, fn func(p *models.UserProfile) error) error {
	if email == "" {
		return models.NewValidationError("email", "an identity is required")
	}
	err := s.store.Update(ctx, models.UsersCollection, email, func(cur docstore.Record) (interface{}, error) {
		var p models.UserProfile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		p = normalize(p)
		if err := fn(&p); err != nil {
			return nil, err
		}
		return p, nil
	})
	return storeErr("update", err)
}

func normalize(p models.UserProfile) models.UserProfile {
	if p.Friends == nil {
		p.Friends = []string{}
	}
	if p.FriendRequests == nil {
		p.FriendRequests = []string{}
	}
	return p
}

// storeErr keeps domain errors and wraps the rest as a PersistenceError.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrForbidden),
		models.IsValidation(err),
		models.IsPersistence(err):
		return err
	default:
		return models.NewPersistenceError(op, models.UsersCollection, err)
	}
}
