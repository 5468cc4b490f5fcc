package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/medifleet/config"
)

func TestNewWiresMemoryBackend(t *testing.T) {
	svc, err := New(config.Default())
	require.NoError(t, err)
	defer svc.Close()

	robots, err := svc.Authority.Robots(context.Background())
	require.NoError(t, err)
	assert.Len(t, robots, 3)
	assert.NotNil(t, svc.Auction)
	assert.NotNil(t, svc.Movement)
	assert.NotNil(t, svc.Poll)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc, err := New(config.Default())
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
