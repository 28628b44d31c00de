package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	var transitions []string
	cb := New(Config{
		FailureThreshold: 3,
		Component:        "session_store",
		OnStateChange: func(component string, from, to State) {
			transitions = append(transitions, component+":"+from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 3; i++ {
		if err := cb.Execute(fail); !errors.Is(err, errBackend) {
			t.Fatalf("Execute() #%d = %v, want errBackend", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Execute() while open = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
	if len(transitions) != 1 || transitions[0] != "session_store:closed->open" {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestCircuitBreaker_HalfOpenThenClosed(t *testing.T) {
	now := time.Now()
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	now = now.Add(2 * time.Second)
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("trial Execute() = %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half_open after one trial call", cb.State())
	}
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("second trial Execute() = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := New(Config{FailureThreshold: 1, OpenTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(fail)
	now = now.Add(2 * time.Second)
	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open after failed trial call", cb.State())
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	benign := errors.New("not found")
	cb := New(Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, benign) },
	})
	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return benign })
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed for benign errors", cb.State())
	}
}

func TestState_String(t *testing.T) {
	if got := State(9).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
