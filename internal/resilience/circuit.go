// Package resilience guards outbound calls (RSS feed fetches, model API
// requests) with retries and per-service circuit breakers.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState is the breaker state machine position.
type CircuitState int

const (
	// CircuitClosed admits every call.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the reset timeout elapses.
	CircuitOpen
	// CircuitHalfOpen admits probe calls to test whether the service recovered.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected without being attempted.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls when a breaker trips and recovers.
type CircuitBreakerConfig struct {
	// FailureThreshold is the failure streak that opens the circuit. Default 5.
	FailureThreshold int

	// ResetTimeout is how long an open circuit waits before admitting a
	// probe. Default 30s.
	ResetTimeout time.Duration

	// HalfOpenMaxProbes is how many probes must succeed before the circuit
	// closes again. Default 1.
	HalfOpenMaxProbes int

	// ShouldTrip decides whether an error counts toward the streak. Nil
	// counts every non-nil error.
	ShouldTrip func(err error) bool

	// OnStateChange observes state transitions.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns the defaults used when no
// resilience section is configured.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
	}
}

// CircuitBreaker tracks the health of one upstream service. A misbehaving
// feed host stops consuming its rate-limit slot once its breaker opens,
// while the remaining hosts keep being fetched.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    CircuitState
	streak   int       // consecutive qualifying failures
	probes   int       // successes while half-open
	openedAt time.Time // last failure that left the circuit open

	clock func() time.Time
}

// NewCircuitBreaker creates a breaker, filling in defaults for zero fields.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxProbes <= 0 {
		cfg.HalfOpenMaxProbes = 1
	}
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed, clock: time.Now}
}

// Execute runs fn if the breaker admits it and records the outcome.
// Returns ErrCircuitOpen without calling fn when the circuit is open.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.observe(err)
	return err
}

// ExecuteVal is Execute for calls that return a value.
func ExecuteVal[T any](ctx context.Context, b *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.observe(err)
	return val, err
}

// State reports the effective state, accounting for an open circuit whose
// reset timeout has already elapsed.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitOpen && b.clock().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return b.state
}

// Failures reports the current failure streak.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streak
}

// Reset forces the circuit closed and clears the streak.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.state
	b.state = CircuitClosed
	b.streak = 0
	b.probes = 0
	if prev != CircuitClosed && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(prev, CircuitClosed)
	}
}

func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen {
		if b.clock().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return ErrCircuitOpen
		}
		b.shift(CircuitHalfOpen)
	}
	// Closed and half-open both admit the call.
	return nil
}

func (b *CircuitBreaker) observe(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := err != nil
	if counts && b.cfg.ShouldTrip != nil {
		counts = b.cfg.ShouldTrip(err)
	}

	if !counts {
		switch b.state {
		case CircuitHalfOpen:
			b.probes++
			if b.probes >= b.cfg.HalfOpenMaxProbes {
				b.shift(CircuitClosed)
				b.streak = 0
				b.probes = 0
			}
		case CircuitClosed:
			b.streak = 0
		}
		return
	}

	b.streak++
	b.openedAt = b.clock()

	switch b.state {
	case CircuitClosed:
		if b.streak >= b.cfg.FailureThreshold {
			b.shift(CircuitOpen)
		}
	case CircuitHalfOpen:
		// A failed probe reopens immediately.
		b.shift(CircuitOpen)
		b.probes = 0
	}
}

func (b *CircuitBreaker) shift(to CircuitState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// ServiceBreakers holds one breaker per upstream host so a single dead
// feed cannot take the whole collection run with it.
type ServiceBreakers struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	breakers map[string]*CircuitBreaker
}

// NewServiceBreakers creates an empty per-service registry.
func NewServiceBreakers(cfg CircuitBreakerConfig) *ServiceBreakers {
	return &ServiceBreakers{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for service, creating it on first use.
func (sb *ServiceBreakers) Get(service string) *CircuitBreaker {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	b, ok := sb.breakers[service]
	if !ok {
		b = NewCircuitBreaker(sb.cfg)
		sb.breakers[service] = b
	}
	return b
}

// States snapshots every registered breaker, keyed by service name.
func (sb *ServiceBreakers) States() map[string]CircuitState {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	states := make(map[string]CircuitState, len(sb.breakers))
	for name, b := range sb.breakers {
		states[name] = b.State()
	}
	return states
}
