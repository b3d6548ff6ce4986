// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package friends

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/models"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
	carol = "carol@example.com"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := docstore.Open(config.StorageConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, p := range []models.UserProfile{
		{Email: alice, Username: "alice"},
		{Email: bob, Username: "bob"},
		{Email: carol, Username: "carol"},
	} {
		if err := store.Put(ctx, models.UsersCollection, p.Email, p); err != nil {
			t.Fatal(err)
		}
	}
	return NewService(store)
}

func TestSearchByUsernameExcludesSelf(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	found, err := svc.SearchByUsername(ctx, alice, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Email != bob {
		t.Errorf("expected bob, got %+v", found)
	}

	self, err := svc.SearchByUsername(ctx, alice, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(self) != 0 {
		t.Errorf("search must exclude self, got %+v", self)
	}

	partial, err := svc.SearchByUsername(ctx, alice, "bo")
	if err != nil {
		t.Fatal(err)
	}
	if len(partial) != 0 {
		t.Errorf("search is exact, got %+v", partial)
	}

	if _, err := svc.SearchByUsername(ctx, alice, " "); !models.IsValidation(err) {
		t.Errorf("expected ValidationError for blank username, got %v", err)
	}
}

func TestRequestAcceptFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("repeated request should be a no-op, got %v", err)
	}

	reqs, err := svc.Requests(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 || reqs[0].Email != alice {
		t.Fatalf("expected one request from alice, got %+v", reqs)
	}

	if err := svc.Accept(ctx, bob, alice); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		ok, err := svc.AreFriends(ctx, pair[0], pair[1])
		if err != nil || !ok {
			t.Errorf("expected %s and %s to be friends (err=%v)", pair[0], pair[1], err)
		}
	}
	bobProfile, err := svc.Profile(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(bobProfile.FriendRequests) != 0 {
		t.Errorf("request should be consumed, got %v", bobProfile.FriendRequests)
	}

	if err := svc.SendRequest(ctx, alice, bob); !models.IsValidation(err) {
		t.Errorf("expected ValidationError for existing friend, got %v", err)
	}
	if err := svc.RequireFriend(ctx, alice, bob); err != nil {
		t.Errorf("RequireFriend: %v", err)
	}
	if err := svc.RequireFriend(ctx, alice, carol); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SendRequest(ctx, alice, alice); !models.IsValidation(err) {
		t.Errorf("expected ValidationError for self request, got %v", err)
	}
	if err := svc.SendRequest(ctx, alice, "nobody@example.com"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
	if err := svc.Accept(ctx, bob, carol); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound accepting a missing request, got %v", err)
	}
}

func TestReject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SendRequest(ctx, carol, alice); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reject(ctx, alice, carol); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	reqs, err := svc.Requests(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected no requests, got %+v", reqs)
	}
	if ok, _ := svc.AreFriends(ctx, alice, carol); ok {
		t.Error("rejecting must not create a friendship")
	}
	if err := svc.Reject(ctx, alice, carol); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for second reject, got %v", err)
	}
}

func TestRemoveBothSides(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, other := range []string{bob, carol} {
		if err := svc.SendRequest(ctx, other, alice); err != nil {
			t.Fatal(err)
		}
		if err := svc.Accept(ctx, alice, other); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.Friends(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Username != "bob" || list[1].Username != "carol" {
		t.Fatalf("expected bob and carol sorted, got %+v", list)
	}

	if err := svc.Remove(ctx, alice, bob); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := svc.AreFriends(ctx, bob, alice); ok {
		t.Error("removal must apply to both sides")
	}
	if err := svc.Remove(ctx, alice, bob); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound removing a non-friend, got %v", err)
	}
}

func TestUpdateBio(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.UpdateBio(ctx, alice, "  vintage hunter  ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Bio != "vintage hunter" {
		t.Errorf("unexpected bio %q", p.Bio)
	}
	stored, err := svc.Profile(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Bio != "vintage hunter" || stored.Username != "alice" {
		t.Errorf("unexpected stored profile %+v", stored)
	}

	if _, err := svc.UpdateBio(ctx, alice, strings.Repeat("x", MaxBioLength+1)); !models.IsValidation(err) {
		t.Errorf("expected ValidationError for long bio, got %v", err)
	}
}
