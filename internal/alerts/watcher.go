// Package alerts keeps the unread alert summary current and pushes it to
// connected consoles.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/eventbus"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/richxcame/fleet-analytics/pkg/websocket"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

const (
	eventSource = "alerts-watcher"
	// latestLimit bounds the unread alerts carried in a summary
	latestLimit = 5
)

// Source is the backend surface the watcher needs
type Source interface {
	ListAlerts(ctx context.Context) ([]fleet.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
}

// Broadcaster pushes messages to live clients
type Broadcaster interface {
	SendToAll(msg *websocket.Message)
}

// Subscriber registers event handlers on the bus
type Subscriber interface {
	Subscribe(ctx context.Context, subject, consumerName string, handler eventbus.HandlerFunc) error
}

// Line is an alert as shown in the console badge dropdown
type Line struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id,omitempty"`
	Vehicle   string `json:"vehicle,omitempty"`
	Message   string `json:"message"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Summary is the unread alert state
type Summary struct {
	Unread   int       `json:"unread"`
	Total    int       `json:"total"`
	LatestID string    `json:"latest_id,omitempty"`
	Latest   []Line    `json:"latest"`
	At       time.Time `json:"at"`
}

// sameAs compares the fields that make a summary worth pushing.
func (s Summary) sameAs(o Summary) bool {
	return s.Unread == o.Unread && s.Total == o.Total && s.LatestID == o.LatestID
}

// Summarize counts unread alerts and lists the newest ones first. Alerts
// without a parsable date sort last.
func Summarize(alerts []fleet.Alert, at time.Time) Summary {
	unread := make([]fleet.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.Read {
			unread = append(unread, a)
		}
	}
	sort.SliceStable(unread, func(i, j int) bool {
		ti, okI := unread[i].When()
		tj, okJ := unread[j].When()
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})

	s := Summary{Unread: len(unread), Total: len(alerts), Latest: []Line{}, At: at}
	if len(unread) > 0 {
		s.LatestID = unread[0].ID
	}
	for i, a := range unread {
		if i == latestLimit {
			break
		}
		s.Latest = append(s.Latest, Line{
			ID:        a.ID,
			VehicleID: a.VehicleID(),
			Vehicle:   vehicleLabel(a.Vehicle),
			Message:   a.Message,
			Category:  a.Category,
			CreatedAt: a.CreatedAt,
		})
	}
	return s
}

// vehicleLabel names the alert's vehicle. A reference that cannot be named
// gets the unknown-vehicle label; an alert without a vehicle gets "".
func vehicleLabel(ref fleet.Ref) string {
	if ref.ID == "" && !ref.Populated() {
		return ""
	}
	v := fleet.Vehicle{
		Brand: ref.Field("marque"),
		Model: ref.Field("modele"),
		Plate: ref.Field("immatriculation"),
	}
	if label := v.Label(); label != "" {
		return label
	}
	return fleet.UnknownVehicle
}

// Watcher recomputes the summary on each Refresh and announces changes.
type Watcher struct {
	source    Source
	hub       Broadcaster
	publisher eventbus.Publisher
	clock     clockz.Clock
	log       *zap.Logger

	mu      sync.RWMutex
	alerts  []fleet.Alert
	current *Summary
}

// NewWatcher creates a watcher. hub and publisher may be nil.
func NewWatcher(source Source, hub Broadcaster, publisher eventbus.Publisher, clock clockz.Clock) *Watcher {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Watcher{
		source:    source,
		hub:       hub,
		publisher: publisher,
		clock:     clock,
		log:       logger.Named("alerts.watcher"),
	}
}

// Refresh lists alerts and pushes the summary when it changed. It is the
// body of the alerts refresh task.
func (w *Watcher) Refresh(ctx context.Context) error {
	list, err := w.source.ListAlerts(ctx)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	w.apply(ctx, list)
	return nil
}

// apply makes alerts the current listing and announces the summary if it
// changed.
func (w *Watcher) apply(ctx context.Context, alerts []fleet.Alert) {
	next := Summarize(alerts, w.clock.Now().UTC())

	w.mu.Lock()
	changed := w.current == nil || !w.current.sameAs(next)
	w.alerts = alerts
	w.current = &next
	w.mu.Unlock()

	if !changed {
		return
	}
	w.log.Debug("alert summary changed", zap.Int("unread", next.Unread), zap.Int("total", next.Total))
	if w.hub != nil {
		w.hub.SendToAll(websocket.NewMessage(websocket.TypeAlertsSummary, next))
	}
	w.announce(ctx, next)
}

// markLocal flags id as read in the last listing so the badge drops without
// waiting for the next poll.
func (w *Watcher) markLocal(ctx context.Context, id string) {
	w.mu.RLock()
	alerts := make([]fleet.Alert, len(w.alerts))
	copy(alerts, w.alerts)
	w.mu.RUnlock()

	found := false
	for i := range alerts {
		if alerts[i].ID == id && !alerts[i].Read {
			alerts[i].Read = true
			found = true
		}
	}
	if found {
		w.apply(ctx, alerts)
	}
}

// Current returns the last computed summary.
func (w *Watcher) Current() (Summary, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return Summary{}, false
	}
	return *w.current, true
}

// Summary returns the current summary, computing it on first use.
func (w *Watcher) Summary(ctx context.Context) (Summary, error) {
	if s, ok := w.Current(); ok {
		return s, nil
	}
	if err := w.Refresh(ctx); err != nil {
		return Summary{}, err
	}
	s, _ := w.Current()
	return s, nil
}

// Greeting is the message sent to a console when it connects.
func (w *Watcher) Greeting() *websocket.Message {
	s, ok := w.Current()
	if !ok {
		return nil
	}
	return websocket.NewMessage(websocket.TypeAlertsSummary, s)
}

// MarkRead acknowledges an alert on the backend and announces it.
func (w *Watcher) MarkRead(ctx context.Context, id, userID string) error {
	if err := w.source.MarkAlertRead(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewNotFoundError("alert not found", err)
		}
		return fmt.Errorf("mark alert read: %w", err)
	}
	w.markLocal(ctx, id)

	if w.publisher == nil {
		return nil
	}
	event, err := eventbus.NewEvent(eventbus.SubjectAlertRead, eventSource, eventbus.AlertReadData{
		AlertID: id,
		UserID:  userID,
		ReadAt:  w.clock.Now().UTC(),
	})
	if err == nil {
		err = w.publisher.Publish(ctx, eventbus.SubjectAlertRead, event)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to publish alert read event", zap.String("alert_id", id), zap.Error(err))
	}
	return nil
}

// OnRead wires alerts.read events to trigger, usually the refresh task's Trigger.
func (w *Watcher) OnRead(ctx context.Context, bus Subscriber, trigger func()) error {
	return bus.Subscribe(ctx, eventbus.SubjectAlertRead, eventSource, func(ctx context.Context, event *eventbus.Event) error {
		var data eventbus.AlertReadData
		if err := event.Decode(&data); err != nil {
			w.log.Warn("malformed alert read event", zap.String("event_id", event.ID), zap.Error(err))
			return nil
		}
		w.log.Debug("alert read, refreshing summary", zap.String("alert_id", data.AlertID))
		trigger()
		return nil
	})
}

func (w *Watcher) announce(ctx context.Context, s Summary) {
	if w.publisher == nil {
		return
	}
	event, err := eventbus.NewEvent(eventbus.SubjectAlertsSummary, eventSource, eventbus.AlertsSummaryData{
		Unread:   s.Unread,
		Total:    s.Total,
		LatestID: s.LatestID,
		At:       s.At,
	})
	if err == nil {
		err = w.publisher.Publish(ctx, eventbus.SubjectAlertsSummary, event)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to publish alerts summary", zap.Error(err))
	}
}
