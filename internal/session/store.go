package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kjstillabower/contact-form-service/internal/form"
)

// ErrNotFound is returned by Get when no live state exists for the session id.
var ErrNotFound = errors.New("session not found")

// Store keeps one form.State per session id. Entries expire after their TTL;
// an expired session behaves like an unmounted one.
type Store interface {
	Get(ctx context.Context, id string) (form.State, error)
	Set(ctx context.Context, id string, state form.State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// InMemoryStore implements Store with a map guarded by a mutex.
// Expired entries are removed on access.
type InMemoryStore struct {
	mu   sync.Mutex
	data map[string]storeEntry
}

type storeEntry struct {
	state     form.State
	expiresAt time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]storeEntry),
	}
}

// Get returns the state for id, or ErrNotFound if absent or expired.
func (s *InMemoryStore) Get(ctx context.Context, id string) (form.State, error) {
	if err := ctx.Err(); err != nil {
		return form.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[id]
	if !ok {
		return form.State{}, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.data, id)
		return form.State{}, ErrNotFound
	}
	return entry.state, nil
}

// Set stores state for id until ttl elapses.
func (s *InMemoryStore) Set(ctx context.Context, id string, state form.State, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = storeEntry{
		state:     state,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// encodeState and decodeState are the wire format shared by remote backends.
func encodeState(state form.State) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return raw, nil
}

func decodeState(raw []byte) (form.State, error) {
	var state form.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return form.State{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}
