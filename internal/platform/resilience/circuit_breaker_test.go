package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker("schedule_store", 2, 5*time.Second, 1)

	now := time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	var transitions []string
	b.OnStateChange(func(dependency string, from, to CircuitState) {
		transitions = append(transitions, fmt.Sprintf("%s:%s->%s", dependency, from, to))
	})

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	now = now.Add(2 * time.Second)
	err := b.Allow()
	var open *OpenError
	if !errors.Is(err, ErrCircuitOpen) || !errors.As(err, &open) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
	if open.Dependency != "schedule_store" || open.RetryAfter != 3*time.Second {
		t.Fatalf("unexpected open error: %+v", open)
	}

	now = now.Add(4 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open trial call to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open call, got %s", state)
	}

	want := []string{
		"schedule_store:closed->open",
		"schedule_store:open->half_open",
		"schedule_store:half_open->closed",
	}
	if fmt.Sprint(transitions) != fmt.Sprint(want) {
		t.Fatalf("unexpected transitions: got=%v want=%v", transitions, want)
	}
}

func TestCircuitBreaker_MalformedFeedDataDoesNotTrip(t *testing.T) {
	b := NewCircuitBreaker("odds_feed", 1, time.Minute, 1)
	errMalformed := errors.New("malformed game")
	errUpstream := errors.New("odds feed returned 503")
	countable := func(err error) bool { return !errors.Is(err, errMalformed) }

	if err := b.Execute(func() error { return errMalformed }, countable); !errors.Is(err, errMalformed) {
		t.Fatalf("unexpected error: got=%v want=%v", err, errMalformed)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after malformed data, got %s", state)
	}

	if err := b.Execute(func() error { return errUpstream }, countable); !errors.Is(err, errUpstream) {
		t.Fatalf("unexpected error: got=%v want=%v", err, errUpstream)
	}
	if err := b.Execute(func() error { return nil }, countable); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	var disabled *CircuitBreaker
	if err := disabled.Execute(func() error { return nil }, nil); err != nil {
		t.Fatalf("nil breaker should pass through, got %v", err)
	}
	if disabled.OnStateChange(nil) != nil || disabled.Dependency() != "" {
		t.Fatalf("nil breaker helpers must be no-ops")
	}
}

func TestNewCircuitBreakerFromConfig_Disabled(t *testing.T) {
	if b := NewCircuitBreakerFromConfig("qstash", CircuitBreakerConfig{Enabled: false}); b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	b := NewCircuitBreakerFromConfig("qstash", CircuitBreakerConfig{Enabled: true})
	if b == nil || b.Dependency() != "qstash" {
		t.Fatalf("expected named breaker when enabled, got %+v", b)
	}
	if b.failureThreshold != 5 || b.halfOpenMaxReq != 2 {
		t.Fatalf("expected normalized defaults, got threshold=%d half_open=%d", b.failureThreshold, b.halfOpenMaxReq)
	}
}

func TestLogTransitions(t *testing.T) {
	var got []any
	fn := LogTransitions(func(msg string, args ...any) {
		got = append([]any{msg}, args...)
	})
	fn("anubis", CircuitStateClosed, CircuitStateOpen)

	want := []any{"circuit breaker state changed", "dependency", "anubis", "from", CircuitStateClosed, "to", CircuitStateOpen}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("unexpected log args: %v", got)
	}
}
