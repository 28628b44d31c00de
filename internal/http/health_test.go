package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/contact-form-service/internal/lifecycle"
	"github.com/kjstillabower/contact-form-service/internal/session"
	"github.com/kjstillabower/contact-form-service/internal/traffic"
)

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resetHealthState(t *testing.T) {
	t.Helper()
	traffic.Reset()
	lifecycle.MarkStarting(0)
	lifecycle.SetShuttingDown(false)
	t.Cleanup(func() {
		traffic.Reset()
		lifecycle.MarkStarting(0)
		lifecycle.SetShuttingDown(false)
	})
}

func getHealth(t *testing.T, h *Handler) (int, healthBody) {
	t.Helper()
	w := httptest.NewRecorder()
	h.GetHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body healthBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return w.Code, body
}

func TestGetHealth_States(t *testing.T) {
	hc := &HealthConfig{
		OverloadWindow:       time.Minute,
		OverloadThresholdPct: 100,
		RateLimitRPS:         1,
		DegradedWindow:       time.Minute,
		DegradedErrorPct:     50,
	}
	tests := []struct {
		name       string
		store      session.Store
		setup      func()
		wantStatus string
		wantCode   int
		wantStore  string
	}{
		{
			name:       "healthy",
			store:      session.NewInMemoryStore(),
			setup:      func() {},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
			wantStore:  "healthy",
		},
		{
			name:       "starting during ready delay",
			store:      session.NewInMemoryStore(),
			setup:      func() { lifecycle.MarkStarting(time.Hour) },
			wantStatus: "starting",
			wantCode:   http.StatusServiceUnavailable,
			wantStore:  "healthy",
		},
		{
			name:       "shutting down",
			store:      session.NewInMemoryStore(),
			setup:      func() { lifecycle.SetShuttingDown(true) },
			wantStatus: "shutting-down",
			wantCode:   http.StatusServiceUnavailable,
			wantStore:  "healthy",
		},
		{
			name:       "store unreachable",
			store:      &failingStore{err: errors.New("dial tcp: connection refused")},
			setup:      func() {},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
			wantStore:  "unhealthy",
		},
		{
			name:  "overloaded",
			store: session.NewInMemoryStore(),
			setup: func() {
				for i := 0; i < 70; i++ {
					traffic.Record(traffic.Denied)
				}
			},
			wantStatus: "overloaded",
			wantCode:   http.StatusServiceUnavailable,
			wantStore:  "healthy",
		},
		{
			name:  "store error rate breach",
			store: session.NewInMemoryStore(),
			setup: func() {
				traffic.Record(traffic.Failure)
				traffic.Record(traffic.Success)
			},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
			wantStore:  "healthy",
		},
		{
			name:  "error rate below threshold",
			store: session.NewInMemoryStore(),
			setup: func() {
				traffic.Record(traffic.Failure)
				traffic.Record(traffic.Success)
				traffic.Record(traffic.Success)
			},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
			wantStore:  "healthy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealthState(t)
			tt.setup()

			code, body := getHealth(t, newTestHandler(t, tt.store, hc))
			if code != tt.wantCode {
				t.Errorf("status code = %d, want %d", code, tt.wantCode)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			if body.Checks["sessionStore"] != tt.wantStore {
				t.Errorf("checks.sessionStore = %q, want %q", body.Checks["sessionStore"], tt.wantStore)
			}
		})
	}
}

func TestGetHealth_NilConfigOnlyChecksStore(t *testing.T) {
	resetHealthState(t)
	for i := 0; i < 1000; i++ {
		traffic.Record(traffic.Failure)
	}

	code, body := getHealth(t, newTestHandler(t, session.NewInMemoryStore(), nil))
	if code != http.StatusOK || body.Status != "healthy" {
		t.Errorf("got %d %q, want 200 healthy", code, body.Status)
	}
}

func TestGetHealth_LogsTransition(t *testing.T) {
	resetHealthState(t)
	core, logs := observer.New(zapcore.InfoLevel)
	h := newTestHandler(t, session.NewInMemoryStore(), nil)
	h.logger = zap.New(core)

	getHealth(t, h)
	lifecycle.SetShuttingDown(true)
	getHealth(t, h)
	getHealth(t, h)

	entries := logs.FilterMessage("health status transition").All()
	if len(entries) != 1 {
		t.Fatalf("transition logs = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["previous_status"] != "healthy" || fields["current_status"] != "shutting-down" {
		t.Errorf("transition fields = %v", fields)
	}
}

// hangingPingStore never answers Ping before the context ends.
type hangingPingStore struct {
	*session.InMemoryStore
}

func (hangingPingStore) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestGetHealth_PingTimeoutBoundsStoreCheck(t *testing.T) {
	resetHealthState(t)
	h := newTestHandler(t, hangingPingStore{session.NewInMemoryStore()}, &HealthConfig{PingTimeout: 20 * time.Millisecond})

	start := time.Now()
	code, body := getHealth(t, h)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("health took %v, want bounded by the 20ms ping timeout", elapsed)
	}
	if code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Errorf("health = %d %q, want 503 degraded", code, body.Status)
	}
	if body.Checks["sessionStore"] != "unhealthy" {
		t.Errorf("checks = %v, want sessionStore unhealthy", body.Checks)
	}
}
