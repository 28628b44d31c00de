package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/contact-form-service/internal/form"
	"github.com/kjstillabower/contact-form-service/internal/observability"
	"github.com/kjstillabower/contact-form-service/internal/session"
	"github.com/kjstillabower/contact-form-service/internal/traffic"
)

// ErrStoreUnavailable wraps session store failures other than a miss.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ContactService owns contact form instances. Each instance is a form.State kept
// in a session.Store under a random id; events for one id are serialized.
type ContactService struct {
	store session.Store
	ttl   time.Duration
	locks *sessionLocks
	newID func() string
}

// NewContactService returns a ContactService keeping instances for ttl after their last event.
func NewContactService(store session.Store, ttl time.Duration) *ContactService {
	return &ContactService{
		store: store,
		ttl:   ttl,
		locks: newSessionLocks(),
		newID: uuid.NewString,
	}
}

// Mount creates a new empty instance and returns its id.
func (s *ContactService) Mount(ctx context.Context) (string, form.State, error) {
	id := s.newID()
	state := form.New()
	if err := s.save(ctx, id, state); err != nil {
		return "", form.State{}, err
	}
	observability.ContactSessionsTotal.WithLabelValues("mounted").Inc()
	observability.LoggerFromContext(ctx).Debug("form mounted", zap.String("session_id", id))
	return id, state, nil
}

// Resume returns the instance for id, mounting a fresh one when id is empty,
// unknown or expired. The returned id is the one to use from now on.
func (s *ContactService) Resume(ctx context.Context, id string) (string, form.State, error) {
	if id == "" {
		return s.Mount(ctx)
	}
	state, err := s.load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return s.Mount(ctx)
	}
	if err != nil {
		return "", form.State{}, err
	}
	return id, state, nil
}

// Apply reduces events over the instance id and stores the result. An unknown
// or expired id starts from an empty form under the same id.
func (s *ContactService) Apply(ctx context.Context, id string, events ...form.Event) (form.State, error) {
	if id == "" {
		return form.State{}, fmt.Errorf("apply events: empty session id")
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	logger := observability.LoggerFromContext(ctx).With(zap.String("session_id", id))

	state, err := s.load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		state = form.New()
		observability.ContactSessionsTotal.WithLabelValues("mounted").Inc()
		logger.Debug("form remounted for unknown session")
	} else if err != nil {
		return form.State{}, err
	}

	for _, e := range events {
		state = form.Reduce(state, e)
		observability.ContactEventsTotal.WithLabelValues(string(e.Type)).Inc()
		if e.Type == form.EventSubmit {
			recordSubmit(logger, state)
		} else {
			logger.Debug("field changed", zap.String("field", string(e.Field)), zap.String("phase", state.Phase().String()))
		}
	}

	if err := s.save(ctx, id, state); err != nil {
		return form.State{}, err
	}
	return state, nil
}

// Unmount discards the instance id.
func (s *ContactService) Unmount(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	start := time.Now()
	err := s.store.Delete(ctx, id)
	observability.ObserveSessionStore("delete", start, err)
	if err != nil {
		traffic.Record(traffic.Failure)
		return fmt.Errorf("%w: delete %s: %w", ErrStoreUnavailable, id, err)
	}
	traffic.Record(traffic.Success)
	observability.ContactSessionsTotal.WithLabelValues("unmounted").Inc()
	return nil
}

// Ping checks the session store.
func (s *ContactService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ContactService) load(ctx context.Context, id string) (form.State, error) {
	start := time.Now()
	state, err := s.store.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		observability.ObserveSessionStore("get", start, nil)
		traffic.Record(traffic.Success)
		return form.State{}, err
	}
	observability.ObserveSessionStore("get", start, err)
	if err != nil {
		traffic.Record(traffic.Failure)
		observability.LoggerFromContext(ctx).Warn("session load failed", zap.String("session_id", id), zap.Error(err))
		return form.State{}, fmt.Errorf("%w: get %s: %w", ErrStoreUnavailable, id, err)
	}
	traffic.Record(traffic.Success)
	return state, nil
}

func (s *ContactService) save(ctx context.Context, id string, state form.State) error {
	start := time.Now()
	err := s.store.Set(ctx, id, state, s.ttl)
	observability.ObserveSessionStore("set", start, err)
	if err != nil {
		traffic.Record(traffic.Failure)
		observability.LoggerFromContext(ctx).Error("session save failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("%w: set %s: %w", ErrStoreUnavailable, id, err)
	}
	return nil
}

func recordSubmit(logger *zap.Logger, state form.State) {
	if state.Submitted != nil {
		observability.ContactSubmissionsTotal.WithLabelValues("accepted").Inc()
		logger.Info("contact form submitted", zap.Bool("has_message", state.Submitted.Message != ""))
		return
	}
	fields := state.Errors().Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		observability.ContactValidationErrorsTotal.WithLabelValues(string(f)).Inc()
		names = append(names, string(f))
	}
	observability.ContactSubmissionsTotal.WithLabelValues("rejected").Inc()
	logger.Info("contact form rejected", zap.Strings("invalid_fields", names))
}
