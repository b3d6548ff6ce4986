// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/models"
)

// AccountsCollection holds credentials keyed by email.
const AccountsCollection = "accounts"

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password. The two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Account is the credential document.
type Account struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned after a successful signup or login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
}

// Service creates accounts and logs users in.
type Service struct {
	store docstore.Store
	jwt   *JWTManager

	// signupMu serializes the uniqueness check and the writes of Signup.
	signupMu sync.Mutex
}

// NewService returns a Service.
func NewService(store docstore.Store, jwt *JWTManager) *Service {
	return &Service{store: store, jwt: jwt}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the account and the public profile, then issues a token.
// A taken email or username returns an error wrapping models.ErrConflict.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	email := NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if email == "" {
		return Session{}, models.NewValidationError("email", "is required")
	}
	if username == "" {
		return Session{}, models.NewValidationError("username", "is required")
	}
	if len(req.Password) < MinPasswordLength || len(req.Password) > MaxPasswordLength {
		return Session{}, models.NewValidationError("password", fmt.Sprintf("must be %d to %d characters", MinPasswordLength, MaxPasswordLength))
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}

	s.signupMu.Lock()
	defer s.signupMu.Unlock()

	if _, err := s.store.Get(ctx, AccountsCollection, email); err == nil {
		return Session{}, fmt.Errorf("email already registered: %w", models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		return Session{}, persistenceErr("get", AccountsCollection, err)
	}

	taken, err := s.store.QueryByEquality(ctx, models.UsersCollection, "username", username)
	if err != nil {
		return Session{}, persistenceErr("query", models.UsersCollection, err)
	}
	if len(taken) > 0 {
		return Session{}, fmt.Errorf("username already taken: %w", models.ErrConflict)
	}

	account := Account{Email: email, Username: username, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	if err := s.store.Put(ctx, AccountsCollection, email, account); err != nil {
		return Session{}, persistenceErr("put", AccountsCollection, err)
	}
	profile := models.UserProfile{Email: email, Username: username, Friends: []string{}, FriendRequests: []string{}}
	if err := s.store.Put(ctx, models.UsersCollection, email, profile); err != nil {
		if delErr := s.store.DeleteRecord(ctx, AccountsCollection, email); delErr != nil {
			logging.Ctx(ctx).Error().Err(delErr).Str("email", email).Msg("failed to roll back account after profile write failure")
		}
		return Session{}, persistenceErr("put", models.UsersCollection, err)
	}

	logging.Ctx(ctx).Info().Str("email", email).Str("username", username).Msg("account created")
	return s.issue(email, username)
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	email := NormalizeEmail(req.Email)
	account, err := docstore.GetDecoded[Account](ctx, s.store, AccountsCollection, email)
	if errors.Is(err, models.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, persistenceErr("get", AccountsCollection, err)
	}
	if !CheckPassword(account.PasswordHash, req.Password) {
		logging.Ctx(ctx).Debug().Str("email", email).Msg("login rejected: wrong password")
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(account.Email, account.Username)
}

func (s *Service) issue(email, username string) (Session, error) {
	token, expires, err := s.jwt.GenerateToken(email, username)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expires, Email: email, Username: username}, nil
}

func persistenceErr(op, collection string, err error) error {
	if models.IsPersistence(err) {
		return err
	}
	return models.NewPersistenceError(op, collection, err)
}
