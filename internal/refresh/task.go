// Package refresh runs periodic recomputations on an injectable clock.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/fleet-analytics/pkg/errors"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

var (
	taskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_task_runs_total",
			Help: "Refresh task runs by task and outcome",
		},
		[]string{"task", "status"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refresh_task_duration_seconds",
			Help:    "Refresh task run duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)
)

// Func is one refresh pass
type Func func(ctx context.Context) error

// Status reports the outcome of the latest run
type Status struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	Running   bool          `json:"running"`
}

// Task runs fn immediately on Start and then every interval until stopped.
// A failing run is logged and counted; the loop keeps going.
type Task struct {
	name     string
	interval time.Duration
	run      Func
	clock    clockz.Clock
	logger   *zap.Logger

	trigger chan struct{}

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	runs     int
	failures int
	lastRun  time.Time
	lastErr  error
}

// NewTask creates a task on the real clock
func NewTask(name string, interval time.Duration, run Func) *Task {
	return &Task{
		name:     name,
		interval: interval,
		run:      run,
		clock:    clockz.RealClock,
		logger:   logger.Named("refresh." + name),
		trigger:  make(chan struct{}, 1),
	}
}

// WithClock swaps the clock, for tests.
func (t *Task) WithClock(clock clockz.Clock) *Task {
	t.clock = clock
	return t
}

// Name returns the task name
func (t *Task) Name() string { return t.name }

// Start launches the loop. Starting a running task is an error.
func (t *Task) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return fmt.Errorf("refresh task %s: interval must be positive", t.name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return fmt.Errorf("refresh task %s already started", t.name)
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.loop(ctx)
	t.logger.Info("refresh task started", zap.Duration("interval", t.interval))
	return nil
}

// Stop cancels the loop and waits for the current run to finish.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	t.wg.Wait()
	t.logger.Info("refresh task stopped")
}

// Trigger asks for an early run. Requests made while one is pending collapse.
func (t *Task) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}

// Status returns a copy of the task's counters
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Status{
		Name:     t.name,
		Interval: t.interval,
		Runs:     t.runs,
		Failures: t.failures,
		LastRun:  t.lastRun,
		Running:  t.cancel != nil,
	}
	if t.lastErr != nil {
		s.LastError = t.lastErr.Error()
	}
	return s
}

func (t *Task) loop(ctx context.Context) {
	defer t.wg.Done()

	for {
		t.runOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(t.interval):
		case <-t.trigger:
		}
	}
}

func (t *Task) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := t.clock.Now()
	err := t.safeRun(ctx)
	taskDuration.WithLabelValues(t.name).Observe(t.clock.Since(start).Seconds())

	t.mu.Lock()
	t.runs++
	t.lastRun = start
	t.lastErr = err
	if err != nil {
		t.failures++
	}
	t.mu.Unlock()

	if err != nil {
		taskRuns.WithLabelValues(t.name, "error").Inc()
		if ctx.Err() == nil {
			t.logger.Warn("refresh run failed", zap.Error(err))
		}
		return
	}
	taskRuns.WithLabelValues(t.name, "ok").Inc()
}

// safeRun turns a panic in fn into an error so the loop survives it.
func (t *Task) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			errors.CaptureErrorWithContext(ctx, err, map[string]interface{}{"task": t.name})
		}
	}()
	return t.run(ctx)
}

// Group starts and stops a set of tasks together
type Group struct {
	tasks []*Task
}

// NewGroup creates a group
func NewGroup(tasks ...*Task) *Group {
	return &Group{tasks: tasks}
}

// Add appends a task. Tasks added after Start are not started.
func (g *Group) Add(t *Task) {
	g.tasks = append(g.tasks, t)
}

// Start starts every task, stopping the ones already started on failure.
func (g *Group) Start(ctx context.Context) error {
	for i, t := range g.tasks {
		if err := t.Start(ctx); err != nil {
			for _, started := range g.tasks[:i] {
				started.Stop()
			}
			return err
		}
	}
	return nil
}

// Stop stops every task
func (g *Group) Stop() {
	for _, t := range g.tasks {
		t.Stop()
	}
}

// Statuses lists the status of every task
func (g *Group) Statuses() []Status {
	out := make([]Status, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, t.Status())
	}
	return out
}
