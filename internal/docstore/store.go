// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package docstore is the document persistence layer: named collections of
// JSON documents addressed by ID, with equality queries on top-level fields.
//
// BadgerStore keeps the documents in an embedded BadgerDB. BreakerStore wraps
// any Store with a circuit breaker, metrics and PersistenceError mapping, and
// is what the rest of the application talks to.
package docstore

import (
	"context"

	"github.com/goccy/go-json"
)

// Record is a stored document.
type Record struct {
	ID   string
	Data []byte
}

// Decode unmarshals the document into v. The document carries its own "id"
// field, so types with an `json:"id"` tag receive the ID as well.
func (r Record) Decode(v interface{}) error {
	return json.Unmarshal(r.Data, v)
}

// UpdateFunc receives the current document and returns the replacement.
type UpdateFunc func(current Record) (interface{}, error)

// Store is the persistence contract used by the domain packages.
type Store interface {
	// CreateRecord stores doc under a new ID and returns it.
	CreateRecord(ctx context.Context, collection string, doc interface{}) (string, error)

	// DeleteRecord removes a document. Deleting a missing ID succeeds.
	DeleteRecord(ctx context.Context, collection, id string) error

	// QueryByEquality returns documents whose top-level field equals value.
	QueryByEquality(ctx context.Context, collection, field string, value interface{}) ([]Record, error)

	// Get returns models.ErrNotFound when the ID is absent.
	Get(ctx context.Context, collection, id string) (Record, error)

	// Put writes doc under a caller-chosen ID, replacing any existing document.
	Put(ctx context.Context, collection, id string, doc interface{}) error

	// Update applies fn to an existing document atomically. Returns
	// models.ErrNotFound when the ID is absent.
	Update(ctx context.Context, collection, id string, fn UpdateFunc) error

	// List returns every document in a collection.
	List(ctx context.Context, collection string) ([]Record, error)
}

// QueryDecoded runs QueryByEquality and decodes each record into a T.
func QueryDecoded[T any](ctx context.Context, s Store, collection, field string, value interface{}) ([]T, error) {
	records, err := s.QueryByEquality(ctx, collection, field, value)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](records)
}

// ListDecoded runs List and decodes each record into a T.
func ListDecoded[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	records, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](records)
}

// GetDecoded runs Get and decodes the record into a T.
func GetDecoded[T any](ctx context.Context, s Store, collection, id string) (T, error) {
	var out T
	rec, err := s.Get(ctx, collection, id)
	if err != nil {
		return out, err
	}
	err = rec.Decode(&out)
	return out, err
}

func decodeAll[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if err := r.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// withID encodes doc and stamps the "id" field with id.
func withID(doc interface{}, id string) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	idRaw, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	fields["id"] = idRaw
	return json.Marshal(fields)
}
