package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddTicker_Fires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count atomic.Int32
	s.AddTicker("tick", 20*time.Millisecond, func(context.Context) {
		count.Add(1)
	})

	assert.Eventually(t, func() bool { return count.Load() >= 3 },
		time.Second, 10*time.Millisecond)
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count1, count2 atomic.Int32
	s.AddTicker("task", 20*time.Millisecond, func(context.Context) { count1.Add(1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func(context.Context) { count2.Add(1) })
	time.Sleep(80 * time.Millisecond)

	snap1 := count1.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, count1.Load(), "old ticker must stop after replacement")
	assert.Positive(t, count2.Load())
}

func TestAddTicker_NonPositiveInterval(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()
	s.AddTicker("never", 0, func(context.Context) {})
	assert.Empty(t, s.ListTickers())
}

func TestRemove_Ticker(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count atomic.Int32
	s.AddTicker("task", 20*time.Millisecond, func(context.Context) { count.Add(1) })
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	time.Sleep(10 * time.Millisecond)
	snap := count.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, count.Load(), "ticker must stop after Remove")
}

func TestRemove_NonExistent(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()
	s.Remove("nope") // must not panic
}

func TestStop_CancelsRunningTask(t *testing.T) {
	s := New(zap.NewNop())

	started := make(chan struct{}, 1)
	var cancelled atomic.Bool
	s.AddTicker("slow", 10*time.Millisecond, func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
	})
	<-started
	s.Stop() // blocks until the task has observed cancellation
	assert.True(t, cancelled.Load())
	assert.Empty(t, s.ListTickers())
}

func TestStop_Idempotent(t *testing.T) {
	s := New(zap.NewNop())
	s.Stop()
	s.Stop() // must not panic on double-stop
}

func TestAddTicker_AfterStopIgnored(t *testing.T) {
	s := New(zap.NewNop())
	s.Stop()
	s.AddTicker("late", time.Millisecond, func(context.Context) {})
	assert.Empty(t, s.ListTickers())
}

func TestListTickers(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	require.Empty(t, s.ListTickers())
	s.AddTicker("beta", time.Hour, func(context.Context) {})
	s.AddTicker("alpha", time.Hour, func(context.Context) {})
	assert.Equal(t, []string{"alpha", "beta"}, s.ListTickers())

	s.Remove("alpha")
	assert.Equal(t, []string{"beta"}, s.ListTickers())
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var calls atomic.Int32
	s.AddTicker("panic", 20*time.Millisecond, func(context.Context) {
		calls.Add(1)
		panic("oops")
	})
	// The ticker keeps firing after a panic.
	assert.Eventually(t, func() bool { return calls.Load() >= 2 },
		time.Second, 10*time.Millisecond)
}
