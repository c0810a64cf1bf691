package chart

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var chartHandles = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chart_handles_total",
		Help: "Chart handles created and destroyed",
	},
	[]string{"holder", "event"},
)

// Handle is one rendered chart set. A destroyed handle keeps its charts for
// inspection but is no longer served.
type Handle struct {
	Generation  uint64    `json:"generation"`
	PeriodLabel string    `json:"period_label"`
	Charts      []Spec    `json:"charts"`
	CreatedAt   time.Time `json:"created_at"`
	destroyed   atomic.Bool
}

// Destroyed reports whether the handle was released.
func (h *Handle) Destroyed() bool { return h.destroyed.Load() }

// Holder owns at most one live Handle. Replace always destroys the previous
// handle before creating the next one.
type Holder struct {
	name    string
	mu      sync.RWMutex
	current *Handle
	seq     uint64
}

// NewHolder creates an empty holder
func NewHolder(name string) *Holder {
	return &Holder{name: name}
}

// Replace destroys the live handle, then stores charts as a new one.
// label names the period the charts cover.
func (h *Holder) Replace(charts []Spec, label string, at time.Time) *Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.destroyLocked()
	h.seq++
	h.current = &Handle{Generation: h.seq, PeriodLabel: label, Charts: charts, CreatedAt: at}
	chartHandles.WithLabelValues(h.name, "created").Inc()
	return h.current
}

// Current returns the live handle, if any.
func (h *Holder) Current() (*Handle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil, false
	}
	return h.current, true
}

// Destroy releases the live handle. Safe to call on an empty holder.
func (h *Holder) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyLocked()
}

// Generation is the number of handles created so far.
func (h *Holder) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

func (h *Holder) destroyLocked() {
	if h.current == nil {
		return
	}
	h.current.destroyed.Store(true)
	h.current = nil
	chartHandles.WithLabelValues(h.name, "destroyed").Inc()
}
