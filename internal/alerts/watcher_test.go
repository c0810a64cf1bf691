package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/richxcame/fleet-analytics/internal/fleet"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/eventbus"
	"github.com/richxcame/fleet-analytics/pkg/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

// ========================================
// MOCKS
// ========================================

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListAlerts(ctx context.Context) ([]fleet.Alert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fleet.Alert), args.Error(1)
}

func (m *mockSource) MarkAlertRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event *eventbus.Event) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

type recordingHub struct {
	mu   sync.Mutex
	msgs []*websocket.Message
}

func (h *recordingHub) SendToAll(msg *websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

type fakeBus struct {
	subject  string
	consumer string
	handler  eventbus.HandlerFunc
}

func (b *fakeBus) Subscribe(ctx context.Context, subject, consumerName string, handler eventbus.HandlerFunc) error {
	b.subject, b.consumer, b.handler = subject, consumerName, handler
	return nil
}

func alert(id string, read bool, createdAt string) fleet.Alert {
	return fleet.Alert{ID: id, Vehicle: fleet.NewRef("v1"), Message: "Vidange dépassée", Category: "entretien", Read: read, CreatedAt: createdAt}
}

var sampleAlerts = []fleet.Alert{
	alert("a1", false, "2024-04-10T08:00:00Z"),
	alert("a2", true, "2024-04-11T08:00:00Z"),
	alert("a3", false, "2024-04-15T08:00:00Z"),
	alert("a4", false, ""),
}

// ========================================
// SUMMARIZE
// ========================================

func TestSummarize(t *testing.T) {
	at := time.Date(2024, time.April, 17, 0, 0, 0, 0, time.UTC)

	s := Summarize(sampleAlerts, at)

	assert.Equal(t, 3, s.Unread)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, "a3", s.LatestID)
	require.Len(t, s.Latest, 3)
	assert.Equal(t, []string{"a3", "a1", "a4"}, []string{s.Latest[0].ID, s.Latest[1].ID, s.Latest[2].ID})
	assert.Equal(t, "v1", s.Latest[0].VehicleID)
	assert.Equal(t, at, s.At)
}

func TestSummarize_LimitsLatest(t *testing.T) {
	var list []fleet.Alert
	for i := 1; i <= 8; i++ {
		list = append(list, alert(fmt.Sprintf("a%d", i), false, fmt.Sprintf("2024-04-%02dT08:00:00Z", i)))
	}

	s := Summarize(list, time.Time{})

	assert.Equal(t, 8, s.Unread)
	assert.Len(t, s.Latest, latestLimit)
	assert.Equal(t, "a8", s.LatestID)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Time{})

	assert.Zero(t, s.Unread)
	assert.Empty(t, s.LatestID)
	assert.NotNil(t, s.Latest)
}

func TestVehicleLabel(t *testing.T) {
	populated := fleet.Ref{ID: "v1", Object: map[string]any{"_id": "v1", "marque": "Toyota", "modele": "Hilux"}}
	plateOnly := fleet.Ref{ID: "v2", Object: map[string]any{"_id": "v2", "immatriculation": "1234 TBA"}}

	assert.Equal(t, "Toyota Hilux", vehicleLabel(populated))
	assert.Equal(t, "1234 TBA", vehicleLabel(plateOnly))
	assert.Equal(t, fleet.UnknownVehicle, vehicleLabel(fleet.NewRef("v3")))
	assert.Empty(t, vehicleLabel(fleet.Ref{}))
}

// ========================================
// WATCHER
// ========================================

func TestWatcher_RefreshPushesOnlyChanges(t *testing.T) {
	source := new(mockSource)
	source.On("ListAlerts", mock.Anything).Return(sampleAlerts, nil).Twice()
	source.On("ListAlerts", mock.Anything).Return(sampleAlerts[1:], nil).Once()

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, eventbus.SubjectAlertsSummary, mock.Anything).Return(nil)

	hub := &recordingHub{}
	w := NewWatcher(source, hub, publisher, clockz.NewFakeClock())

	require.NoError(t, w.Refresh(context.Background()))
	require.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, 1, hub.count(), "unchanged summary is not pushed twice")

	require.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, 2, hub.count())
	assert.Equal(t, websocket.TypeAlertsSummary, hub.msgs[1].Type)

	current, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, 2, current.Unread)
	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestWatcher_RefreshErrorKeepsLastSummary(t *testing.T) {
	source := new(mockSource)
	source.On("ListAlerts", mock.Anything).Return(sampleAlerts, nil).Once()
	source.On("ListAlerts", mock.Anything).Return(nil, errors.New("alertes: timeout")).Once()

	w := NewWatcher(source, nil, nil, clockz.NewFakeClock())

	require.NoError(t, w.Refresh(context.Background()))
	err := w.Refresh(context.Background())

	assert.ErrorContains(t, err, "alertes: timeout")
	current, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, 3, current.Unread)
}

func TestWatcher_SummaryComputesOnFirstUse(t *testing.T) {
	source := new(mockSource)
	source.On("ListAlerts", mock.Anything).Return(sampleAlerts, nil).Once()
	w := NewWatcher(source, nil, nil, clockz.NewFakeClock())

	assert.Nil(t, w.Greeting())

	s, err := w.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Unread)

	_, err = w.Summary(context.Background())
	require.NoError(t, err)
	source.AssertNumberOfCalls(t, "ListAlerts", 1)

	greeting := w.Greeting()
	require.NotNil(t, greeting)
	assert.Equal(t, websocket.TypeAlertsSummary, greeting.Type)
}

func TestWatcher_MarkRead(t *testing.T) {
	source := new(mockSource)
	source.On("MarkAlertRead", mock.Anything, "a1").Return(nil)

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, eventbus.SubjectAlertRead, mock.MatchedBy(func(e *eventbus.Event) bool {
		var data eventbus.AlertReadData
		return e.Decode(&data) == nil && data.AlertID == "a1" && data.UserID == "u1"
	})).Return(nil).Once()

	w := NewWatcher(source, nil, publisher, clockz.NewFakeClock())

	require.NoError(t, w.MarkRead(context.Background(), "a1", "u1"))
	publisher.AssertExpectations(t)
}

func TestWatcher_MarkReadDropsUnreadImmediately(t *testing.T) {
	source := new(mockSource)
	source.On("ListAlerts", mock.Anything).Return(sampleAlerts, nil).Once()
	source.On("MarkAlertRead", mock.Anything, "a3").Return(nil)
	source.On("MarkAlertRead", mock.Anything, "a2").Return(nil)

	hub := &recordingHub{}
	w := NewWatcher(source, hub, nil, clockz.NewFakeClock())
	require.NoError(t, w.Refresh(context.Background()))
	require.Equal(t, 1, hub.count())

	require.NoError(t, w.MarkRead(context.Background(), "a3", "u1"))

	current, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, 2, current.Unread)
	assert.Equal(t, "a1", current.LatestID)
	assert.Equal(t, 2, hub.count())
	assert.False(t, sampleAlerts[2].Read, "the fixture is not mutated")

	// already read: nothing to push
	require.NoError(t, w.MarkRead(context.Background(), "a2", "u1"))
	assert.Equal(t, 2, hub.count())
	source.AssertNumberOfCalls(t, "ListAlerts", 1)
}

func TestWatcher_MarkReadNotFound(t *testing.T) {
	source := new(mockSource)
	source.On("MarkAlertRead", mock.Anything, "missing").Return(fmt.Errorf("alertes: %w", common.ErrNotFound))
	publisher := new(mockPublisher)

	w := NewWatcher(source, nil, publisher, clockz.NewFakeClock())
	err := w.MarkRead(context.Background(), "missing", "u1")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestWatcher_MarkReadPublishFailureIsNotFatal(t *testing.T) {
	source := new(mockSource)
	source.On("MarkAlertRead", mock.Anything, "a1").Return(nil)
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats: disconnected"))

	w := NewWatcher(source, nil, publisher, clockz.NewFakeClock())

	assert.NoError(t, w.MarkRead(context.Background(), "a1", ""))
}

func TestWatcher_OnReadTriggersRefresh(t *testing.T) {
	w := NewWatcher(new(mockSource), nil, nil, clockz.NewFakeClock())
	bus := &fakeBus{}
	triggered := 0

	require.NoError(t, w.OnRead(context.Background(), bus, func() { triggered++ }))
	assert.Equal(t, eventbus.SubjectAlertRead, bus.subject)
	require.NotNil(t, bus.handler)

	event, err := eventbus.NewEvent(eventbus.SubjectAlertRead, "test", eventbus.AlertReadData{AlertID: "a1"})
	require.NoError(t, err)
	require.NoError(t, bus.handler(context.Background(), event))
	assert.Equal(t, 1, triggered)
}
