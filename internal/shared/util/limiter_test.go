package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1), "burst")
	assert.False(t, l.Allow(1), "burst exhausted")

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow(1), "refilled after wait")
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewEventLimiter(0)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow(1))
	}
}

func TestLimiter_SetRate(t *testing.T) {
	l := NewEventLimiter(1)
	require.True(t, l.Allow(1))
	require.False(t, l.Allow(1))

	l.SetRate(0, 1)
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.1, 1)
	require.True(t, l.Allow(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, 1))
}
