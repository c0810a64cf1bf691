package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

const interval = 30 * time.Second

type fakeClock interface {
	Advance(time.Duration)
	BlockUntilReady()
}

func counting(err error) (Func, *atomic.Int32) {
	var n atomic.Int32
	return func(ctx context.Context) error {
		n.Add(1)
		return err
	}, &n
}

// advanceUntil moves the fake clock forward until cond holds. The loop may
// not have registered its timer yet, so a single Advance can be lost.
func advanceUntil(t *testing.T, clock fakeClock, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		clock.Advance(interval)
		clock.BlockUntilReady()
		return cond()
	}, time.Second, 5*time.Millisecond)
}

func TestTask_RunsImmediatelyThenEveryInterval(t *testing.T) {
	clock := clockz.NewFakeClock()
	run, n := counting(nil)
	task := NewTask("dashboard", interval, run).WithClock(clock)

	require.NoError(t, task.Start(context.Background()))
	defer task.Stop()

	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	advanceUntil(t, clock, func() bool { return n.Load() >= 3 })
	assert.GreaterOrEqual(t, task.Status().Runs, 3)
}

func TestTask_ErrorsDoNotStopTheLoop(t *testing.T) {
	clock := clockz.NewFakeClock()
	run, n := counting(errors.New("alertes: connection refused"))
	task := NewTask("alerts", interval, run).WithClock(clock)

	require.NoError(t, task.Start(context.Background()))
	defer task.Stop()

	advanceUntil(t, clock, func() bool { return n.Load() >= 2 })

	status := task.Status()
	assert.Equal(t, status.Runs, status.Failures)
	assert.Equal(t, "alertes: connection refused", status.LastError)
	assert.True(t, status.Running)
}

func TestTask_PanicIsRecovered(t *testing.T) {
	clock := clockz.NewFakeClock()
	var n atomic.Int32
	task := NewTask("panicky", interval, func(ctx context.Context) error {
		n.Add(1)
		panic("boom")
	}).WithClock(clock)

	require.NoError(t, task.Start(context.Background()))
	defer task.Stop()

	advanceUntil(t, clock, func() bool { return n.Load() >= 2 })
	assert.Contains(t, task.Status().LastError, "boom")
}

func TestTask_TriggerRunsEarly(t *testing.T) {
	clock := clockz.NewFakeClock()
	run, n := counting(nil)
	task := NewTask("alerts", interval, run).WithClock(clock)

	require.NoError(t, task.Start(context.Background()))
	defer task.Stop()
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	task.Trigger()

	require.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, time.Millisecond)
}

func TestTask_StopEndsTheLoop(t *testing.T) {
	clock := clockz.NewFakeClock()
	run, n := counting(nil)
	task := NewTask("dashboard", interval, run).WithClock(clock)

	require.NoError(t, task.Start(context.Background()))
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	task.Stop()
	task.Stop()
	runs := n.Load()
	clock.Advance(10 * interval)
	task.Trigger()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, runs, n.Load())
	assert.False(t, task.Status().Running)
}

func TestTask_StartTwiceFails(t *testing.T) {
	run, _ := counting(nil)
	task := NewTask("dashboard", interval, run).WithClock(clockz.NewFakeClock())

	require.NoError(t, task.Start(context.Background()))
	defer task.Stop()

	assert.Error(t, task.Start(context.Background()))
}

func TestTask_RejectsNonPositiveInterval(t *testing.T) {
	run, _ := counting(nil)
	assert.Error(t, NewTask("bad", 0, run).Start(context.Background()))
}

func TestGroup(t *testing.T) {
	clock := clockz.NewFakeClock()
	runA, a := counting(nil)
	runB, b := counting(nil)
	g := NewGroup(NewTask("a", interval, runA).WithClock(clock))
	g.Add(NewTask("b", interval, runB).WithClock(clock))

	require.NoError(t, g.Start(context.Background()))
	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, time.Millisecond)

	statuses := g.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "a", statuses[0].Name)

	g.Stop()
	for _, s := range g.Statuses() {
		assert.False(t, s.Running)
	}
}
