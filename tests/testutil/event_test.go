package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingHandler(t *testing.T) {
	h := NewRecordingHandler("StockReceived")
	assert.Equal(t, []string{"StockReceived"}, h.EventTypes())

	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, NewTestEvent("StockReceived")))
	require.NoError(t, h.Handle(ctx, NewTestEvent("StockConsumed")))
	assert.Equal(t, 2, h.Count())
	assert.Len(t, h.OfType("StockConsumed"), 1)

	boom := errors.New("boom")
	h.SetError(boom)
	assert.ErrorIs(t, h.Handle(ctx, NewTestEvent("StockReceived")), boom)

	h.Reset()
	assert.Zero(t, h.Count())
	assert.NoError(t, h.Handle(ctx, NewTestEvent("StockReceived")))
}

func TestWaitForCondition(t *testing.T) {
	start := time.Now()
	assert.True(t, WaitForCondition(t, func() bool { return time.Since(start) > 20*time.Millisecond }, time.Second, 5*time.Millisecond))
	assert.False(t, WaitForCondition(t, func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond))
}
