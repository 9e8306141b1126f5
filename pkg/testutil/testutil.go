// Package testutil provides shared helpers for connector tests.
package testutil

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/flowgate-io/flowgate/pkg/config"
)

// Logger returns a zap logger that writes through t.
func Logger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// SourceConfig returns a BaseConfig wired for source tests against a
// local test server. Retries and the circuit breaker are disabled so
// failure tests observe single requests.
func SourceConfig(name, baseURL, apiKey string) *config.BaseConfig {
	cfg := config.NewBaseConfig(name, name)
	cfg.Security.Credentials["api_key"] = apiKey
	cfg.Security.Credentials["base_url"] = baseURL
	cfg.Reliability.RetryAttempts = 1
	cfg.Reliability.CircuitBreaker = false
	cfg.Reliability.HealthCheck = false
	return cfg
}

// DestinationConfig returns a BaseConfig wired for destination tests
// writing under dir.
func DestinationConfig(name, path string) *config.BaseConfig {
	cfg := config.NewBaseConfig(name, name)
	cfg.Properties["path"] = path
	cfg.Reliability.CircuitBreaker = false
	cfg.Reliability.HealthCheck = false
	return cfg
}
