// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/models"
)

func newTestService(t *testing.T) (*Service, docstore.Store) {
	t.Helper()
	store, err := docstore.Open(config.StorageConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, newTestJWTManager(t)), store
}

func TestSignupCreatesAccountAndProfile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, SignupRequest{Email: "  Alice@Example.com ", Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if sess.Email != "alice@example.com" || sess.Token == "" {
		t.Errorf("unexpected session %+v", sess)
	}

	claims, err := svc.jwt.ValidateToken(sess.Token)
	if err != nil || claims.Email() != "alice@example.com" {
		t.Errorf("token does not carry the email: %v %+v", err, claims)
	}

	profile, err := docstore.GetDecoded[models.UserProfile](ctx, store, models.UsersCollection, "alice@example.com")
	if err != nil {
		t.Fatalf("profile missing: %v", err)
	}
	if profile.Username != "alice" {
		t.Errorf("unexpected profile %+v", profile)
	}

	account, err := docstore.GetDecoded[Account](ctx, store, AccountsCollection, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if string(account.PasswordHash) == "correct horse" || !CheckPassword(account.PasswordHash, "correct horse") {
		t.Error("password must be stored as a bcrypt hash")
	}
}

func TestSignupUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{Email: "a@x.io", Username: "alpha", Password: "password1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Signup(ctx, SignupRequest{Email: "A@X.IO", Username: "other", Password: "password1"}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
	if _, err := svc.Signup(ctx, SignupRequest{Email: "b@x.io", Username: "alpha", Password: "password1"}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate username, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]SignupRequest{
		"no email":       {Username: "alpha", Password: "password1"},
		"no username":    {Email: "a@x.io", Password: "password1"},
		"short password": {Email: "a@x.io", Username: "alpha", Password: "short"},
	}
	for name, req := range cases {
		if _, err := svc.Signup(ctx, req); !models.IsValidation(err) {
			t.Errorf("%s: expected ValidationError, got %v", name, err)
		}
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{Email: "a@x.io", Username: "alpha", Password: "password1"}); err != nil {
		t.Fatal(err)
	}

	sess, err := svc.Login(ctx, LoginRequest{Email: "A@x.io", Password: "password1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Username != "alpha" || sess.Token == "" {
		t.Errorf("unexpected session %+v", sess)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "a@x.io", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@x.io", Password: "password1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
