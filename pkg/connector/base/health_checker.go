package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/pkg/errors"
)

// HealthCheckFunc is a single named health probe.
type HealthCheckFunc func(ctx context.Context) error

// HealthChecker aggregates named health probes and caches the last result.
type HealthChecker struct {
	name   string
	logger *zap.Logger

	mu     sync.RWMutex
	checks map[string]HealthCheckFunc

	lastCheck   time.Time
	lastErr     error
	cachePeriod time.Duration
}

// NewHealthChecker creates an empty health checker.
func NewHealthChecker(name string, log *zap.Logger) *HealthChecker {
	return &HealthChecker{
		name:        name,
		logger:      log,
		checks:      make(map[string]HealthCheckFunc),
		cachePeriod: 10 * time.Second,
	}
}

// Register adds a named probe. Re-registering a name replaces the probe.
func (h *HealthChecker) Register(name string, fn HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = fn
}

// Check runs all probes, returning the first failure. Results are cached
// briefly to keep frequent callers cheap.
func (h *HealthChecker) Check(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if time.Since(h.lastCheck) < h.cachePeriod {
		return h.lastErr
	}

	h.lastCheck = time.Now()
	h.lastErr = nil

	for name, fn := range h.checks {
		if err := fn(ctx); err != nil {
			h.lastErr = errors.Wrap(err, errors.ErrorTypeHealth, "health check failed").
				WithDetail("check", name)
			h.logger.Warn("health check failed",
				zap.String("check", name),
				zap.Error(err))
			return h.lastErr
		}
	}
	return nil
}
