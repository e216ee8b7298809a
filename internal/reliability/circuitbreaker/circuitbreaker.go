package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the circuit rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String names the state for logs and metrics
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	}
	return "unknown"
}

// CircuitBreaker fails fast while an optional dependency such as the
// Redis cache keeps failing. After openFor has elapsed one probe at a time
// is let through; successThreshold consecutive probe successes close the
// circuit again and any probe failure reopens it.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            State
	failures         int32
	successes        int32
	openedAt         time.Time
	probing          bool
	failureThreshold int32
	successThreshold int32
	openFor          time.Duration
	onStateChange    func(from, to State)
	now              func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(failureThreshold, successThreshold int32, openFor time.Duration) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openFor:          openFor,
		now:              time.Now,
	}
}

// SetStateChangeCallback registers a callback for state transitions. It is
// invoked outside the breaker's lock.
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn if the circuit allows it and records the outcome.
// Context cancellation is not counted as a failure of the dependency.
// Callers decide whether ErrOpen is fatal; the job cache treats it as a miss.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.acquire() {
		return ErrOpen
	}
	err := fn()
	cb.release(err)
	return err
}

// acquire decides whether a call may proceed, moving open to half-open
// once openFor has passed.
func (cb *CircuitBreaker) acquire() bool {
	cb.mu.Lock()
	var notify func()
	allowed := false

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.openFor {
			notify = cb.transition(StateHalfOpen)
			cb.probing = true
			allowed = true
		}
	case StateHalfOpen:
		if !cb.probing {
			cb.probing = true
			allowed = true
		}
	}
	cb.mu.Unlock()

	if notify != nil {
		notify()
	}
	return allowed
}

func (cb *CircuitBreaker) release(err error) {
	cb.mu.Lock()
	var notify func()

	ignored := err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
	switch cb.state {
	case StateClosed:
		switch {
		case err == nil:
			cb.failures = 0
		case !ignored:
			cb.failures++
			if cb.failures >= cb.failureThreshold {
				notify = cb.transition(StateOpen)
			}
		}
	case StateHalfOpen:
		cb.probing = false
		switch {
		case err == nil:
			cb.successes++
			if cb.successes >= cb.successThreshold {
				notify = cb.transition(StateClosed)
			}
		case !ignored:
			notify = cb.transition(StateOpen)
		}
	}
	cb.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// transition must be called with mu held. It returns the callback to run
// after the lock is released.
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	if from == to {
		return nil
	}
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	fn := cb.onStateChange
	if fn == nil {
		return nil
	}
	return func() { fn(from, to) }
}
