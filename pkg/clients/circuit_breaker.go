// Package clients provides the HTTP client stack used by Flowgate
// connectors: a tuned transport, token-bucket rate limiting, and circuit
// breaker protection.
package clients

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int32

const (
	// StateClosed allows all requests to pass through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows a limited number of probe requests
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig is the configuration for a circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Consecutive successes before closing
	Timeout          time.Duration // Wait before probing after opening
}

// CircuitBreaker implements the circuit breaker pattern to stop issuing
// requests against an upstream that is persistently failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	logger *zap.Logger

	state           int32
	nextRetryTime   time.Time
	lastStateChange time.Time

	consecutiveFailures  int32
	consecutiveSuccesses int32
	totalRequests        int64
	totalFailures        int64

	mu sync.RWMutex
}

// CircuitBreakerState is a snapshot of the breaker for metrics surfaces.
type CircuitBreakerState struct {
	State       string
	FailureRate float64
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		config:          config,
		logger:          zap.NewNop(),
		state:           int32(StateClosed),
		lastStateChange: time.Now(),
	}
}

// WithLogger attaches a logger for state transition events.
func (cb *CircuitBreaker) WithLogger(logger *zap.Logger) *CircuitBreaker {
	cb.logger = logger.With(zap.String("component", "circuit_breaker"))
	return cb
}

// Execute runs fn with circuit breaker protection. If the circuit is open,
// fn is not executed and an error is returned immediately.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return fmt.Errorf("circuit breaker is open")
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}

	cb.RecordSuccess()
	return nil
}

// Allow reports whether a request may proceed in the current state.
func (cb *CircuitBreaker) Allow() bool {
	state := CircuitState(atomic.LoadInt32(&cb.state))

	switch state {
	case StateClosed:
		return true
	case StateOpen:
		cb.mu.RLock()
		shouldRetry := time.Now().After(cb.nextRetryTime)
		cb.mu.RUnlock()
		if shouldRetry {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	atomic.AddInt64(&cb.totalRequests, 1)
	atomic.StoreInt32(&cb.consecutiveFailures, 0)

	state := CircuitState(atomic.LoadInt32(&cb.state))
	if state == StateHalfOpen {
		successes := atomic.AddInt32(&cb.consecutiveSuccesses, 1)
		if successes >= int32(cb.config.SuccessThreshold) {
			cb.transition(StateClosed)
		}
	}
}

// RecordFailure records a failed request, opening the circuit when the
// failure threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	atomic.AddInt64(&cb.totalRequests, 1)
	atomic.AddInt64(&cb.totalFailures, 1)
	atomic.StoreInt32(&cb.consecutiveSuccesses, 0)

	state := CircuitState(atomic.LoadInt32(&cb.state))
	switch state {
	case StateHalfOpen:
		cb.transition(StateOpen)
	case StateClosed:
		failures := atomic.AddInt32(&cb.consecutiveFailures, 1)
		if failures >= int32(cb.config.FailureThreshold) {
			cb.transition(StateOpen)
		}
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(atomic.LoadInt32(&cb.state))
}

// GetState returns a snapshot for metrics reporting.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	total := atomic.LoadInt64(&cb.totalRequests)
	failures := atomic.LoadInt64(&cb.totalFailures)

	rate := 0.0
	if total > 0 {
		rate = float64(failures) / float64(total)
	}

	return CircuitBreakerState{
		State:       cb.State().String(),
		FailureRate: rate,
	}
}

// Reset returns the breaker to the closed state and clears counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	atomic.StoreInt32(&cb.state, int32(StateClosed))
	atomic.StoreInt32(&cb.consecutiveFailures, 0)
	atomic.StoreInt32(&cb.consecutiveSuccesses, 0)
	cb.lastStateChange = time.Now()
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	from := CircuitState(atomic.LoadInt32(&cb.state))
	if from == to {
		return
	}

	atomic.StoreInt32(&cb.state, int32(to))
	cb.lastStateChange = time.Now()

	if to == StateOpen {
		cb.nextRetryTime = time.Now().Add(cb.config.Timeout)
	}
	if to == StateHalfOpen {
		atomic.StoreInt32(&cb.consecutiveSuccesses, 0)
	}

	cb.logger.Info("circuit breaker state change",
		zap.String("from", from.String()),
		zap.String("to", to.String()))
}
