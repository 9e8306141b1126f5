package base

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
)

func testConfig() *config.BaseConfig {
	cfg := config.NewBaseConfig("test", "test")
	cfg.Reliability.CircuitBreaker = false
	cfg.Reliability.HealthCheck = false
	return cfg
}

func TestInitializeTwiceFails(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	require.NoError(t, b.Initialize(context.Background(), testConfig()))

	err := b.Initialize(context.Background(), testConfig())
	require.Error(t, err)
}

func TestInitializeRejectsNilConfig(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	require.Error(t, b.Initialize(context.Background(), nil))
}

func TestStateIsolation(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	b.UpdateState("orders", "cursor-1")

	state := b.GetState()
	state["orders"] = "mutated"

	assert.Equal(t, "cursor-1", b.GetState()["orders"], "GetState must return a copy")
}

func TestSetStateNilResets(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	b.UpdateState("k", "v")

	require.NoError(t, b.SetState(nil))
	assert.Empty(t, b.GetState())
}

func TestHealthBeforeInitialize(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	require.Error(t, b.Health(context.Background()))
}

func TestHealthAfterClose(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	require.NoError(t, b.Initialize(context.Background(), testConfig()))
	require.NoError(t, b.Close(context.Background()))

	require.Error(t, b.Health(context.Background()))
}

func TestMetricsIdentity(t *testing.T) {
	b := NewBaseConnector("jubelio", core.ConnectorTypeSource)
	require.NoError(t, b.Initialize(context.Background(), testConfig()))

	m := b.Metrics()
	assert.Equal(t, "jubelio", m["name"])
	assert.Equal(t, "source", m["type"])
}

func TestExecuteWithResilienceRetries(t *testing.T) {
	b := NewBaseConnector("test", core.ConnectorTypeSource)
	cfg := testConfig()
	cfg.Reliability.RetryAttempts = 3
	cfg.Reliability.RetryDelay = 1
	require.NoError(t, b.Initialize(context.Background(), cfg))

	attempts := 0
	err := b.ExecuteWithResilience(context.Background(), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
