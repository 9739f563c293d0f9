package cli

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tricount/internal/config"
	"tricount/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("EXPORT_BACKEND", "memory")
	t.Setenv("BATCH_CONCURRENCY", "4")

	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.ExportBackend)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoadAndValidateConfig_Invalid(t *testing.T) {
	t.Setenv("EXPORT_BACKEND", "csv")

	_, err := LoadAndValidateConfig()
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: log.FormatJSON})
	require.NotNil(t, logger)
	assert.Equal(t, log.ComponentApp, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestSignalContext(t *testing.T) {
	logger := log.New(log.DefaultConfig())

	ctx, cancel := SignalContext(context.Background(), logger)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled by SIGTERM")
	}
}

func TestSignalContext_CancelReleases(t *testing.T) {
	ctx, cancel := SignalContext(context.Background(), log.New(log.DefaultConfig()))
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
