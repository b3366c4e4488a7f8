package execmanager

import (
	"sync"
	"time"
)

// BreakerState is one of the §3.6 CircuitBreaker states.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// BreakerConfig holds the thresholds §3.6 leaves to configuration.
type BreakerConfig struct {
	FailureThreshold  int
	Cooldown          time.Duration
	HalfOpenAttempts  int // consecutive half-open successes needed to close
}

// DefaultBreakerConfig: five consecutive failures trips the breaker, a 30s
// cooldown before a half-open trial, two consecutive successes closes it.
var DefaultBreakerConfig = BreakerConfig{
	FailureThreshold: 5,
	Cooldown:         30 * time.Second,
	HalfOpenAttempts: 2,
}

// CircuitBreaker is one per node type (§3.6), mutated atomically since
// the breaker map is process-wide (§5 "Shared resources").
type CircuitBreaker struct {
	cfg BreakerConfig

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	halfOpenSuccess int
	lastFailureTime time.Time
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: BreakerClosed}
}

// BeforeAttempt reports whether a call may proceed, transitioning
// open -> half_open once the cooldown has elapsed (§4.5.2).
func (b *CircuitBreaker) BeforeAttempt() (allowed bool, state BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if time.Since(b.lastFailureTime) >= b.cfg.Cooldown {
			b.state = BreakerHalfOpen
			b.halfOpenSuccess = 0
			return true, BreakerHalfOpen
		}
		return false, BreakerOpen
	default:
		return true, b.state
	}
}

// RecordSuccess transitions half_open -> closed after the configured
// number of consecutive successes; in closed state it resets the
// failure counter.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.halfOpenSuccess++
		if b.halfOpenSuccess >= b.cfg.HalfOpenAttempts {
			b.state = BreakerClosed
			b.failureCount = 0
		}
	case BreakerClosed:
		b.failureCount = 0
	}
}

// RecordFailure reports whether this failure just tripped the breaker
// open (for metrics).
func (b *CircuitBreaker) RecordFailure() (justTripped bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = time.Now()
	switch b.state {
	case BreakerHalfOpen:
		b.state = BreakerOpen
		return true
	case BreakerClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = BreakerOpen
			return true
		}
	}
	return false
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// BreakerRegistry holds one CircuitBreaker per node type, process-wide.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	cfg      BreakerConfig
}

func NewBreakerRegistry(cfg BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{breakers: make(map[string]*CircuitBreaker), cfg: cfg}
}

func (r *BreakerRegistry) For(nodeType string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[nodeType]
	if !ok {
		b = NewCircuitBreaker(r.cfg)
		r.breakers[nodeType] = b
	}
	return b
}
