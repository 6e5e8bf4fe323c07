package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards the remote amount-in-words service. While open, conversions fail fast
// and the editor shows its conversion error text instead of waiting on a dead
// peer. Half-open admits a single probe at a time.

// CBState is the breaker position.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the guarded function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds tunable parameters. Zero values fall back to
// DefaultCBConfig.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures that trip the breaker
	SuccessThreshold int           // consecutive half-open successes that close it
	OpenTimeout      time.Duration // cool-down before the first probe
	// OnStateChange runs after every transition, outside the lock.
	OnStateChange func(name string, from, to CBState)
}

// DefaultCBConfig returns the words service breaker settings.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "words",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CBCounts is a point-in-time view of the breaker counters.
type CBCounts struct {
	State     CBState
	Failures  int
	Successes int
	OpenedAt  time.Time
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: CBClosed}
}

func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// State reports the current position, moving open to half-open once the
// cool-down has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	from, to := cb.state, cb.cooledLocked()
	cb.mu.Unlock()
	cb.notify(from, to)
	return to
}

// Counts returns a snapshot of the counters.
func (cb *CircuitBreaker) Counts() CBCounts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CBCounts{State: cb.state, Failures: cb.failures, Successes: cb.successes, OpenedAt: cb.openedAt}
}

// Execute calls fn unless the breaker is open or a half-open probe is already
// in flight, in which case it returns ErrCircuitOpen.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	from, to := cb.state, cb.cooledLocked()
	ok := to == CBClosed || (to == CBHalfOpen && !cb.probing)
	if ok && to == CBHalfOpen {
		cb.probing = true
	}
	cb.mu.Unlock()
	cb.notify(from, to)
	return ok
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	from := cb.state
	if from == CBHalfOpen {
		cb.probing = false
	}
	switch {
	case err != nil && from == CBHalfOpen:
		cb.tripLocked()
	case err != nil:
		cb.failures++
		if from == CBClosed && cb.failures >= cb.cfg.FailureThreshold {
			cb.tripLocked()
		}
	case from == CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.failures, cb.successes = 0, 0
		}
	default:
		cb.failures = 0
	}
	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = CBOpen
	cb.openedAt = cb.now()
	cb.failures, cb.successes = 0, 0
}

func (cb *CircuitBreaker) cooledLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
		cb.probing = false
	}
	return cb.state
}

func (cb *CircuitBreaker) notify(from, to CBState) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
