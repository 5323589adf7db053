package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", s.location.String())

	s, err = New("")
	require.NoError(t, err)
	assert.Equal(t, "UTC", s.location.String())

	_, err = New("Invalid/Zone")
	require.Error(t, err)
}

func TestSchedule(t *testing.T) {
	s, err := New("UTC")
	require.NoError(t, err)

	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Schedule("0 */6 * * *", noop))
	first := s.entryID

	require.NoError(t, s.Schedule("@every 1h", noop))
	assert.NotEqual(t, first, s.entryID, "rescheduling replaces the entry")
	assert.Len(t, s.cron.Entries(), 1)

	err = s.Schedule("not a schedule", noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
	assert.True(t, s.Next().IsZero())
}

func TestNext(t *testing.T) {
	s, err := New("UTC")
	require.NoError(t, err)
	assert.True(t, s.Next().IsZero())

	require.NoError(t, s.Schedule("@hourly", func(context.Context) error { return nil }))
	s.Start()
	defer s.Stop()

	next := s.Next()
	require.False(t, next.IsZero())
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), next, 31*time.Minute)
}

func TestRun_ExecutesJobUntilCancelled(t *testing.T) {
	s, err := New("UTC")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	require.NoError(t, s.Schedule("@every 1s", func(jobCtx context.Context) error {
		assert.Equal(t, ctx, jobCtx)
		if calls.Add(1) == 1 {
			cancel()
		}
		return errors.New("logged, not fatal")
	}))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}
