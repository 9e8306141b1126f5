package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/pkg/clients"
	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/errors"
	"github.com/flowgate-io/flowgate/pkg/logger"
	"github.com/flowgate-io/flowgate/pkg/metrics"
)

// BaseConnector provides common functionality shared by all connectors:
// state management, rate limiting, circuit breaking, retries and health
// checks. Concrete connectors embed it and override what they need.
type BaseConnector struct {
	name    string
	ctype   core.ConnectorType
	version string

	config *config.BaseConfig
	logger *zap.Logger

	// State management
	stateMu  sync.RWMutex
	state    core.State
	position core.Position

	// Reliability components
	rateLimiter    clients.RateLimiter
	circuitBreaker *clients.CircuitBreaker
	retryPolicy    *RetryPolicy
	healthChecker  *HealthChecker

	// Metrics
	collector *metrics.Collector

	initialized bool
	closed      bool
	mu          sync.Mutex
}

// NewBaseConnector creates a base connector with the given identity.
func NewBaseConnector(name string, ctype core.ConnectorType) *BaseConnector {
	return &BaseConnector{
		name:    name,
		ctype:   ctype,
		version: "1.0.0",
		state:   make(core.State),
		logger:  logger.Get().With(zap.String("connector", name)),
	}
}

// Initialize sets up reliability components from configuration. Concrete
// connectors call this before their own initialization.
func (b *BaseConnector) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return errors.New(errors.ErrorTypeConfig, "connector already initialized")
	}
	if cfg == nil {
		return errors.New(errors.ErrorTypeConfig, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}

	b.config = cfg

	if cfg.Reliability.RateLimitPerSec > 0 {
		b.rateLimiter = clients.NewRateLimiter(
			cfg.Reliability.RateLimitPerSec,
			cfg.Reliability.RateLimitPerSec,
		)
	}

	if cfg.Reliability.CircuitBreaker {
		b.circuitBreaker = clients.NewCircuitBreaker(clients.CircuitBreakerConfig{}).
			WithLogger(b.logger)
	}

	b.retryPolicy = NewRetryPolicy(
		cfg.Reliability.RetryAttempts,
		cfg.Reliability.RetryDelay,
	)

	if cfg.Reliability.HealthCheck {
		b.healthChecker = NewHealthChecker(b.name, b.logger)
	}

	b.collector = metrics.NewCollector(b.name)
	b.initialized = true

	b.logger.Info("connector initialized",
		zap.String("type", string(b.ctype)),
		zap.Int("retry_attempts", cfg.Reliability.RetryAttempts),
		zap.Bool("circuit_breaker", cfg.Reliability.CircuitBreaker))
	return nil
}

// Name returns the connector name
func (b *BaseConnector) Name() string { return b.name }

// Type returns the connector type
func (b *BaseConnector) Type() core.ConnectorType { return b.ctype }

// Version returns the connector version
func (b *BaseConnector) Version() string { return b.version }

// Config returns the active configuration, nil before Initialize.
func (b *BaseConnector) Config() *config.BaseConfig { return b.config }

// Logger returns the connector-scoped logger
func (b *BaseConnector) Logger() *zap.Logger { return b.logger }

// Collector returns the metrics collector, nil before Initialize.
func (b *BaseConnector) Collector() *metrics.Collector { return b.collector }

// GetState returns a copy of the current state
func (b *BaseConnector) GetState() core.State {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()

	copied := make(core.State, len(b.state))
	for k, v := range b.state {
		copied[k] = v
	}
	return copied
}

// SetState replaces the connector state
func (b *BaseConnector) SetState(state core.State) error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if state == nil {
		state = make(core.State)
	}
	b.state = state
	return nil
}

// UpdateState sets a single state entry
func (b *BaseConnector) UpdateState(key string, value interface{}) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.state[key] = value
}

// GetPosition returns the current position
func (b *BaseConnector) GetPosition() core.Position {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.position
}

// SetPosition sets the current position
func (b *BaseConnector) SetPosition(position core.Position) error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.position = position
	return nil
}

// ExecuteWithResilience runs fn with rate limiting, circuit breaking and
// retries applied, in that order.
func (b *BaseConnector) ExecuteWithResilience(ctx context.Context, fn func() error) error {
	attempt := func() error {
		if b.rateLimiter != nil {
			if err := b.rateLimiter.Wait(ctx); err != nil {
				return errors.Wrap(err, errors.ErrorTypeRateLimit, "rate limit wait failed")
			}
		}
		if b.circuitBreaker != nil {
			return b.circuitBreaker.Execute(fn)
		}
		return fn()
	}

	if b.retryPolicy != nil {
		return b.retryPolicy.Execute(ctx, attempt)
	}
	return attempt()
}

// Health reports connector health
func (b *BaseConnector) Health(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return errors.New(errors.ErrorTypeHealth, "connector not initialized")
	}
	if b.closed {
		return errors.New(errors.ErrorTypeHealth, "connector is closed")
	}
	if b.healthChecker != nil {
		return b.healthChecker.Check(ctx)
	}
	return nil
}

// Metrics returns connector runtime metrics
func (b *BaseConnector) Metrics() map[string]interface{} {
	m := map[string]interface{}{
		"name":    b.name,
		"type":    string(b.ctype),
		"version": b.version,
	}
	if b.collector != nil {
		for k, v := range b.collector.GetAll() {
			m[k] = v
		}
		m["uptime_seconds"] = time.Since(b.collector.StartTime()).Seconds()
	}
	if b.circuitBreaker != nil {
		st := b.circuitBreaker.GetState()
		m["circuit_state"] = st.State
		m["circuit_failure_rate"] = st.FailureRate
	}
	if b.rateLimiter != nil {
		stats := b.rateLimiter.GetStats()
		m["rate_limit_allowed"] = stats.AllowedRequests
		m["rate_limit_blocked"] = stats.BlockedRequests
	}
	return m
}

// Close marks the connector as closed
func (b *BaseConnector) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Info("connector closed")
	return nil
}
