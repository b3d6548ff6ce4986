// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/models"
)

// maxUpdateRetries bounds retries of Update on badger.ErrConflict.
const maxUpdateRetries = 5

// BadgerStore implements Store on BadgerDB. Keys are "<collection>/<id>".
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg config.StorageConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Backup streams every key version newer than since to w and returns the
// version to pass as since for an incremental follow-up.
func (s *BadgerStore) Backup(w io.Writer, since uint64) (uint64, error) {
	return s.db.Backup(w, since)
}

// Load replays a stream written by Backup. It must not run concurrently
// with other writes.
func (s *BadgerStore) Load(r io.Reader) error {
	return s.db.Load(r, 256)
}

func docKey(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

func collectionPrefix(collection string) []byte {
	return []byte(collection + "/")
}

func validateName(collection, id string) error {
	if collection == "" || strings.Contains(collection, "/") {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}

// CreateRecord implements Store.
func (s *BadgerStore) CreateRecord(ctx context.Context, collection string, doc interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateName(collection, ""); err != nil {
		return "", err
	}

	id := uuid.NewString()
	data, err := withID(doc, id)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, id), data)
	})
	if err != nil {
		return "", fmt.Errorf("set document: %w", err)
	}
	return id, nil
}

// DeleteRecord implements Store.
func (s *BadgerStore) DeleteRecord(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(collection, id); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(docKey(collection, id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete document: %w", err)
		}
		return nil
	})
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validateName(collection, id); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec = Record{ID: id, Data: data}
		return nil
	})
	return rec, err
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(collection, id); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("put requires an id")
	}

	data, err := withID(doc, id)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, id), data)
	})
}

// Update implements Store. The read and the write share one transaction and
// the whole function is retried when badger reports a write conflict.
func (s *BadgerStore) Update(ctx context.Context, collection, id string, fn UpdateFunc) error {
	if err := validateName(collection, id); err != nil {
		return err
	}

	var err error
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(docKey(collection, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return models.ErrNotFound
			}
			if err != nil {
				return err
			}
			current, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			next, err := fn(Record{ID: id, Data: current})
			if err != nil {
				return err
			}
			data, err := withID(next, id)
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			return txn.Set(docKey(collection, id), data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// QueryByEquality implements Store. Values are compared on their JSON
// encoding, so the query value must have the same JSON shape as the field.
func (s *BadgerStore) QueryByEquality(ctx context.Context, collection, field string, value interface{}) ([]Record, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode query value: %w", err)
	}

	var out []Record
	err = s.scan(ctx, collection, func(rec Record) error {
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(rec.Data, &fields); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, rec.ID, err)
		}
		if got, ok := fields[field]; ok && bytes.Equal(bytes.TrimSpace(got), want) {
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context, collection string) ([]Record, error) {
	var out []Record
	err := s.scan(ctx, collection, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

func (s *BadgerStore) scan(ctx context.Context, collection string, fn func(Record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(collection, ""); err != nil {
		return err
	}

	prefix := collectionPrefix(collection)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			id := string(bytes.TrimPrefix(item.KeyCopy(nil), prefix))
			if err := fn(Record{ID: id, Data: data}); err != nil {
				return err
			}
		}
		return nil
	})
}
