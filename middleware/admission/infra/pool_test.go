package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotPool_BlocksWhenFullUntilRelease(t *testing.T) {
	pool := NewSlotPool(1)

	release, ok := pool.Acquire(context.Background())
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok = pool.Acquire(ctx)
	assert.False(t, ok, "expected second acquire to time out")

	release()

	release2, ok := pool.Acquire(context.Background())
	require.True(t, ok)
	release2()
}
