package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// OpenError is returned while a dependency's breaker rejects calls. It matches ErrCircuitOpen.
type OpenError struct {
	Dependency string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s (retry in %s)", e.Dependency, ErrCircuitOpen, e.RetryAfter.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s: %s", e.Dependency, ErrCircuitOpen)
}

func (e *OpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// StateChangeFunc observes transitions of one dependency's breaker. It runs outside the breaker lock.
type StateChangeFunc func(dependency string, from, to CircuitState)

// CircuitBreaker guards one upstream dependency: the schedule store, the odds feed,
// the identity provider or the job queue.
type CircuitBreaker struct {
	mu sync.Mutex

	dependency       string
	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int
	onChange         StateChangeFunc

	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
	halfOpenSuccesses   int
	now                 func() time.Time
}

func NewCircuitBreaker(dependency string, failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if openTimeout <= 0 {
		openTimeout = 15 * time.Second
	}
	if halfOpenMaxReq < 1 {
		halfOpenMaxReq = 1
	}

	return &CircuitBreaker{
		dependency:       dependency,
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		halfOpenMaxReq:   halfOpenMaxReq,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// OnStateChange installs fn and returns b. Safe on a nil breaker.
func (b *CircuitBreaker) OnStateChange(fn StateChangeFunc) *CircuitBreaker {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
	return b
}

func (b *CircuitBreaker) Dependency() string {
	if b == nil {
		return ""
	}
	return b.dependency
}

func (b *CircuitBreaker) Allow() error {
	var err error
	b.update(func(now time.Time) {
		if b.state == CircuitStateOpen {
			if wait := b.openTimeout - now.Sub(b.openedAt); wait > 0 {
				err = &OpenError{Dependency: b.dependency, RetryAfter: wait}
				return
			}
			b.toHalfOpen()
		}

		if b.state == CircuitStateHalfOpen {
			if b.halfOpenInFlight >= b.halfOpenMaxReq {
				err = &OpenError{Dependency: b.dependency}
				return
			}
			b.halfOpenInFlight++
		}
	})
	return err
}

func (b *CircuitBreaker) RecordSuccess() {
	b.update(func(time.Time) {
		switch b.state {
		case CircuitStateClosed:
			b.consecutiveFailures = 0
		case CircuitStateHalfOpen:
			if b.halfOpenInFlight > 0 {
				b.halfOpenInFlight--
			}
			b.halfOpenSuccesses++
			if b.halfOpenSuccesses >= b.halfOpenMaxReq && b.halfOpenInFlight == 0 {
				b.toClosed()
			}
		}
	})
}

func (b *CircuitBreaker) RecordFailure() {
	b.update(func(now time.Time) {
		switch b.state {
		case CircuitStateClosed:
			b.consecutiveFailures++
			if b.consecutiveFailures >= b.failureThreshold {
				b.toOpen(now)
			}
		case CircuitStateHalfOpen:
			if b.halfOpenInFlight > 0 {
				b.halfOpenInFlight--
			}
			b.toOpen(now)
		case CircuitStateOpen:
			b.openedAt = now
		}
	})
}

// Execute runs fn behind the breaker. Errors for which countable returns
// false (caller mistakes, not dependency faults) do not trip the breaker.
// A nil breaker runs fn directly.
func (b *CircuitBreaker) Execute(fn func() error, countable func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil && (countable == nil || countable(err)) {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) update(mutate func(now time.Time)) {
	b.mu.Lock()
	from := b.state
	mutate(b.now())
	to, notify := b.state, b.onChange
	b.mu.Unlock()

	if notify != nil && from != to {
		notify(b.dependency, from, to)
	}
}

func (b *CircuitBreaker) toClosed() {
	b.state = CircuitStateClosed
	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
	b.openedAt = time.Time{}
}

func (b *CircuitBreaker) toOpen(now time.Time) {
	b.state = CircuitStateOpen
	b.openedAt = now
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}

func (b *CircuitBreaker) toHalfOpen() {
	b.state = CircuitStateHalfOpen
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}
