// Package config provides the unified configuration system for Flowgate.
// Every connector consumes a single BaseConfig structure organized into
// logical sections: performance, timeouts, reliability, security, and
// observability. Connector-specific secrets (API keys, endpoints) travel
// in Security.Credentials and non-secret settings (file paths, format
// options) in Properties, so the framework stays agnostic of individual
// upstream systems.
package config

import (
	"fmt"
	"time"
)

// BaseConfig is the single configuration structure all connectors use.
type BaseConfig struct {
	// Name identifies the connector instance
	Name string `yaml:"name" json:"name"`
	// Type specifies the connector type (e.g., "jubelio", "csv")
	Type string `yaml:"type" json:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Performance settings control batching and buffering
	Performance PerformanceConfig `yaml:"performance" json:"performance"`

	// Timeouts define various timeout durations
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Reliability settings for error handling and resilience
	Reliability ReliabilityConfig `yaml:"reliability" json:"reliability"`

	// Security configuration for authentication and encryption
	Security SecurityConfig `yaml:"security" json:"security"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Properties holds non-secret connector-specific settings such as
	// output paths and format options. Secrets belong in
	// Security.Credentials.
	Properties map[string]string `yaml:"properties" json:"properties"`
}

// PerformanceConfig contains throughput-related settings.
type PerformanceConfig struct {
	// BatchSize controls the number of records handed downstream together
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// BufferSize sets the size of internal channels
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
	// PageSize is the number of records requested per API page
	PageSize int `yaml:"page_size" json:"page_size"`
	// FlushInterval triggers periodic batch flushes
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Request timeout for individual operations
	Request time.Duration `yaml:"request" json:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Probe timeout for connection checks
	Probe time.Duration `yaml:"probe" json:"probe"`
	// KeepAlive interval for connection health
	KeepAlive time.Duration `yaml:"keep_alive" json:"keep_alive"`
}

// ReliabilityConfig contains reliability and error handling settings.
type ReliabilityConfig struct {
	// RetryAttempts sets maximum retry attempts for failed operations
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// CircuitBreaker enables circuit breaker protection
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	// RateLimitPerSec limits operations per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	// HealthCheck enables periodic health checks
	HealthCheck bool `yaml:"health_check" json:"health_check"`
	// FailFast stops on first error instead of continuing
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	// EnableTLS enables TLS/SSL encryption
	EnableTLS bool `yaml:"enable_tls" json:"enable_tls"`
	// TLSSkipVerify disables certificate verification (insecure)
	TLSSkipVerify bool `yaml:"tls_skip_verify" json:"tls_skip_verify"`
	// AuthType specifies the authentication method (api_key, basic, oauth2)
	AuthType string `yaml:"auth_type" json:"auth_type"`
	// Credentials stores connector-specific settings and secrets.
	// Use ${ENV_VAR} substitution in YAML rather than literal secrets.
	Credentials map[string]string `yaml:"credentials" json:"credentials"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableLogging controls logging output
	EnableLogging bool `yaml:"enable_logging" json:"enable_logging"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewBaseConfig creates a BaseConfig with defaults suitable for paginated
// REST extraction. Specific connectors override what they need.
func NewBaseConfig(name, connectorType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    connectorType,
		Version: "1.0.0",
		Performance: PerformanceConfig{
			BatchSize:     1000,
			BufferSize:    10000,
			PageSize:      100,
			FlushInterval: 10 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Probe:      30 * time.Second,
			KeepAlive:  30 * time.Second,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			CircuitBreaker:  true,
			RateLimitPerSec: 0,
			HealthCheck:     true,
			FailFast:        false,
		},
		Security: SecurityConfig{
			EnableTLS:     true,
			TLSSkipVerify: false,
			AuthType:      "api_key",
			Credentials:   make(map[string]string),
		},
		Observability: ObservabilityConfig{
			EnableMetrics: true,
			EnableLogging: true,
			LogLevel:      "info",
		},
		Properties: make(map[string]string),
	}
}

// Property returns a connector-specific setting, or def when absent.
func (bc *BaseConfig) Property(key, def string) string {
	if v, ok := bc.Properties[key]; ok && v != "" {
		return v
	}
	return def
}

// Validate checks required fields and value ranges. Connectors should call
// this after loading configuration to catch errors early.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bc.Type == "" {
		return fmt.Errorf("type is required")
	}
	if bc.Performance.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if bc.Performance.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if bc.Reliability.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts cannot be negative")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate_limit_per_sec cannot be negative")
	}
	return nil
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// HasCredentials returns true if credentials are configured
func (s *SecurityConfig) HasCredentials() bool {
	return len(s.Credentials) > 0
}

// Credential returns a credential value by key, with ok reporting presence.
func (s *SecurityConfig) Credential(key string) (string, bool) {
	if s.Credentials == nil {
		return "", false
	}
	v, ok := s.Credentials[key]
	return v, ok
}
