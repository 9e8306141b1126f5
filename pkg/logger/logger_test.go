package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitAndGet(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug"}))

	log := Get()
	require.NotNil(t, log)
	log.Debug("debug logging works")
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := newLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "shouting"})
	require.Error(t, err)
}

func TestGetWithoutInit(t *testing.T) {
	// Get never returns nil, with or without a prior Init
	assert.NotNil(t, Get())
}

func TestWith(t *testing.T) {
	log := With(zap.String("connector", "jubelio"))
	require.NotNil(t, log)
	log.Info("scoped logger works")
}
