// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"fmt"
)

// Store is a durable mapping from string keys to opaque values.
// This abstraction allows swapping storage backends (SQLite, Redis, memory)
// without changing the stores built on top of it.
//
// Callers always read and write whole records: there is no partial update
// and no version check.
type Store interface {
	// Get returns the value stored under key.
	// found is false (and err nil) when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// PersistenceError is returned when the backing store cannot be read or written.
type PersistenceError struct {
	Op  string // "get", "set" or "delete"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Get reads key from s, wrapping backend failures in a *PersistenceError.
func Get(ctx context.Context, s Store, key string) ([]byte, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, false, &PersistenceError{Op: "get", Key: key, Err: err}
	}
	return v, ok, nil
}

// Set writes key to s, wrapping backend failures in a *PersistenceError.
func Set(ctx context.Context, s Store, key string, value []byte) error {
	if err := s.Set(ctx, key, value); err != nil {
		return &PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes key from s, wrapping backend failures in a *PersistenceError.
func Delete(ctx context.Context, s Store, key string) error {
	if err := s.Delete(ctx, key); err != nil {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
