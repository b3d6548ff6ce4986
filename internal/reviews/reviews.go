// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package reviews stores user ratings of thrift stores.
package reviews

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/models"
)

// Rating bounds. Ratings move in half-star steps.
const (
	MinRating  = 1.0
	MaxRating  = 5.0
	RatingStep = 0.5
	MaxStars   = 5
)

// Service creates and lists reviews.
type Service struct {
	store docstore.Store
	now   func() time.Time
}

// NewService returns a Service backed by store. now may be nil.
func NewService(store docstore.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// ValidateRating reports whether r is within bounds and on a half step.
func ValidateRating(r float64) error {
	if math.IsNaN(r) || r < MinRating || r > MaxRating {
		return models.NewValidationError("rating", "must be between 1 and 5")
	}
	if math.Mod(r/RatingStep, 1) != 0 {
		return models.NewValidationError("rating", "must be a multiple of 0.5")
	}
	return nil
}

// Create stores a review written by owner, dated now.
func (s *Service) Create(ctx context.Context, owner string, draft models.ReviewDraft) (models.Review, error) {
	if owner == "" {
		return models.Review{}, models.NewValidationError("owner_email", "an identity is required")
	}
	name := strings.TrimSpace(draft.StoreName)
	if name == "" {
		return models.Review{}, models.NewValidationError("store_name", "is required")
	}
	if err := ValidateRating(draft.Rating); err != nil {
		return models.Review{}, err
	}

	review := models.Review{
		OwnerEmail: owner,
		StoreName:  name,
		Rating:     draft.Rating,
		Content:    strings.TrimSpace(draft.Content),
		Date:       s.now().UTC().Format(time.RFC3339),
	}
	id, err := s.store.CreateRecord(ctx, models.ReviewsCollection, review)
	if err != nil {
		return models.Review{}, models.NewPersistenceError("create", models.ReviewsCollection, err)
	}
	review.ID = id

	logging.Ctx(ctx).Debug().
		Str("review_id", id).
		Str("store", name).
		Float64("rating", review.Rating).
		Msg("review created")
	return review, nil
}

// ListByOwner returns the reviews written by email, newest first.
func (s *Service) ListByOwner(ctx context.Context, email string) ([]models.Review, error) {
	if email == "" {
		return []models.Review{}, nil
	}
	list, err := docstore.QueryDecoded[models.Review](ctx, s.store, models.ReviewsCollection, "owner_email", email)
	if err != nil {
		return nil, models.NewPersistenceError("query", models.ReviewsCollection, err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})
	return list, nil
}

// StarCounts is the star-row rendering of a rating.
type StarCounts struct {
	Full  int `json:"full"`
	Half  int `json:"half"`
	Empty int `json:"empty"`
}

// Stars splits rating into full, half and empty stars out of MaxStars.
func Stars(rating float64) StarCounts {
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	if rating > MaxStars {
		rating = MaxStars
	}
	full := int(math.Floor(rating))
	half := 0
	if rating-float64(full) > 0 {
		half = 1
	}
	return StarCounts{Full: full, Half: half, Empty: MaxStars - full - half}
}
