package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, cfg := range []Config{
		DefaultConfig(),
		{Level: "DEBUG", Format: "json"},
		{Level: "warn"},
	} {
		logger, err := New(cfg)
		require.NoError(t, err, "config %+v", cfg)
		require.NotNil(t, logger)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello", zap.String(FieldTool, "list_jobs"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "list_jobs", logs.All()[0].ContextMap()[FieldTool])

	assert.NotNil(t, FromContext(context.Background()))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "****", Redact("abcd"))
	assert.Equal(t, "ab******yz", Redact("abcdefghyz"))
}
