package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsTask(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(zerolog.Nop())
	var runs atomic.Int32
	require.NoError(t, s.Every("tick", time.Second, func(ctx context.Context) {
		runs.Add(1)
	}))
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
}

func TestTaskPanicIsRecovered(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(zerolog.Nop())
	var runs atomic.Int32
	require.NoError(t, s.Every("boom", time.Second, func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	}))
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestEveryValidatesInput(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(zerolog.Nop())
	assert.Error(t, s.Every("nil", time.Second, nil))
	assert.Error(t, s.Every("zero", 0, func(context.Context) {}))
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewCronScheduler(zerolog.Nop()).Stop(context.Background()))
}
