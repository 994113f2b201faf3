package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newScheduler(t *testing.T) *Scheduler {
	s, err := New(zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestScheduleRunsImmediatelyAndRepeats(t *testing.T) {
	s := newScheduler(t)
	var runs int32
	err := s.Schedule(context.Background(), "balance", 20*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, Options{RunImmediately: true})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestRescheduleReplacesJob(t *testing.T) {
	s := newScheduler(t)
	var first, second int32
	require.NoError(t, s.Schedule(context.Background(), "quote", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&first, 1)
		return nil
	}, Options{}))
	require.NoError(t, s.Schedule(context.Background(), "quote", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&second, 1)
		return errors.New("aggregator unavailable")
	}, Options{RunImmediately: true}))

	assert.Len(t, s.cron.Jobs(), 1)
	stopped := atomic.LoadInt32(&first)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&second) >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&first), stopped+1)
}

func TestCancelStopsJobAndContext(t *testing.T) {
	s := newScheduler(t)
	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, s.Schedule(context.Background(), "sync", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}, Options{RunImmediately: true}))

	<-started
	s.Cancel("sync")
	assert.False(t, s.Scheduled("sync"))
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled")
	}
	assert.Error(t, s.RunNow("sync"))
}

func TestInvalidInterval(t *testing.T) {
	s := newScheduler(t)
	assert.Error(t, s.Schedule(context.Background(), "x", 0, func(context.Context) error { return nil }, Options{}))
}
