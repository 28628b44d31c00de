package session

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/contact-form-service/internal/circuitbreaker"
	"github.com/kjstillabower/contact-form-service/internal/form"
)

// GuardedStore routes every call to a remote Store through a circuit breaker.
// ErrNotFound, rejected keys and caller cancellation do not count as backend
// failures.
type GuardedStore struct {
	next Store
	cb   *circuitbreaker.CircuitBreaker
}

// IsBackendFailure reports whether err should trip a breaker guarding a Store.
func IsBackendFailure(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, memcache.ErrMalformedKey) &&
		!errors.Is(err, context.Canceled)
}

// NewGuardedStore wraps next with cb. cb should be built with IsFailure: IsBackendFailure.
func NewGuardedStore(next Store, cb *circuitbreaker.CircuitBreaker) *GuardedStore {
	return &GuardedStore{next: next, cb: cb}
}

// Get implements Store.Get.
func (g *GuardedStore) Get(ctx context.Context, id string) (form.State, error) {
	var state form.State
	err := g.cb.Execute(func() error {
		var err error
		state, err = g.next.Get(ctx, id)
		return err
	})
	return state, err
}

// Set implements Store.Set.
func (g *GuardedStore) Set(ctx context.Context, id string, state form.State, ttl time.Duration) error {
	return g.cb.Execute(func() error {
		return g.next.Set(ctx, id, state, ttl)
	})
}

// Delete implements Store.Delete.
func (g *GuardedStore) Delete(ctx context.Context, id string) error {
	return g.cb.Execute(func() error {
		return g.next.Delete(ctx, id)
	})
}

// Ping bypasses the breaker so health checks see the backend directly.
func (g *GuardedStore) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}
