// Package storagetest provides storage.Store helpers for tests.
package storagetest

import (
	"context"
	"sync"

	"github.com/mmynk/storefront/internal/storage"
	"github.com/mmynk/storefront/internal/storage/memory"
)

var _ storage.Store = (*Recorder)(nil)

// Recorder wraps an in-memory store, counting writes and optionally failing them.
type Recorder struct {
	*memory.Store

	mu      sync.Mutex
	sets    int
	deletes int
	failGet error
	failSet error
}

// NewRecorder creates a Recorder over an empty in-memory store.
func NewRecorder() *Recorder {
	return &Recorder{Store: memory.New()}
}

// FailGets makes every subsequent Get return err. A nil err clears it.
func (r *Recorder) FailGets(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failGet = err
}

// FailSets makes every subsequent Set and Delete return err. A nil err clears it.
func (r *Recorder) FailSets(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSet = err
}

// Sets returns how many successful Set calls were made.
func (r *Recorder) Sets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

// Deletes returns how many successful Delete calls were made.
func (r *Recorder) Deletes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletes
}

func (r *Recorder) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	err := r.failGet
	r.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return r.Store.Get(ctx, key)
}

func (r *Recorder) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	r.sets++
	return r.Store.Set(ctx, key, value)
}

func (r *Recorder) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	r.deletes++
	return r.Store.Delete(ctx, key)
}
