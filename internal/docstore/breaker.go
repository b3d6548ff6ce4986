// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package docstore

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
	"github.com/tomtom215/thrifttags/internal/models"
)

const breakerName = "docstore"

// BreakerStore guards a Store with a circuit breaker. Every failure it
// returns, including a rejection by the open breaker, is a
// *models.PersistenceError; models.ErrNotFound passes through untouched.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[interface{}]
}

var _ Store = (*BreakerStore)(nil)

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, cfg config.BreakerConfig) *BreakerStore {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Missing documents and canceled callers say nothing about store health.
			return err == nil ||
				errors.Is(err, models.ErrNotFound) ||
				errors.Is(err, context.Canceled) ||
				models.IsValidation(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerStore{next: next, cb: cb}
}

// State returns the breaker state, for health reporting.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// execute runs fn through the breaker and records metrics.
func (s *BreakerStore) execute(op, collection string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	result, err := s.cb.Execute(fn)
	metrics.RecordStoreOperation(op, collection, time.Since(start), errorForMetrics(err))

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	case errors.Is(err, models.ErrNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		return nil, err
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
	return nil, models.NewPersistenceError(op, collection, err)
}

func errorForMetrics(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

// CreateRecord implements Store.
func (s *BreakerStore) CreateRecord(ctx context.Context, collection string, doc interface{}) (string, error) {
	res, err := s.execute("create", collection, func() (interface{}, error) {
		return s.next.CreateRecord(ctx, collection, doc)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// DeleteRecord implements Store.
func (s *BreakerStore) DeleteRecord(ctx context.Context, collection, id string) error {
	_, err := s.execute("delete", collection, func() (interface{}, error) {
		return nil, s.next.DeleteRecord(ctx, collection, id)
	})
	return err
}

// QueryByEquality implements Store.
func (s *BreakerStore) QueryByEquality(ctx context.Context, collection, field string, value interface{}) ([]Record, error) {
	res, err := s.execute("query", collection, func() (interface{}, error) {
		return s.next.QueryByEquality(ctx, collection, field, value)
	})
	if err != nil {
		return nil, err
	}
	return res.([]Record), nil
}

// Get implements Store.
func (s *BreakerStore) Get(ctx context.Context, collection, id string) (Record, error) {
	res, err := s.execute("get", collection, func() (interface{}, error) {
		return s.next.Get(ctx, collection, id)
	})
	if err != nil {
		return Record{}, err
	}
	return res.(Record), nil
}

// Put implements Store.
func (s *BreakerStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	_, err := s.execute("put", collection, func() (interface{}, error) {
		return nil, s.next.Put(ctx, collection, id, doc)
	})
	return err
}

// Update implements Store. A ValidationError returned by fn reaches the
// caller unwrapped.
func (s *BreakerStore) Update(ctx context.Context, collection, id string, fn UpdateFunc) error {
	var fnErr error
	_, err := s.execute("update", collection, func() (interface{}, error) {
		err := s.next.Update(ctx, collection, id, func(cur Record) (interface{}, error) {
			next, err := fn(cur)
			fnErr = err
			return next, err
		})
		return nil, err
	})
	if fnErr != nil && errors.Is(err, fnErr) {
		return fnErr
	}
	return err
}

// List implements Store.
func (s *BreakerStore) List(ctx context.Context, collection string) ([]Record, error) {
	res, err := s.execute("list", collection, func() (interface{}, error) {
		return s.next.List(ctx, collection)
	})
	if err != nil {
		return nil, err
	}
	return res.([]Record), nil
}
