package fleet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(access string) (*gin.Engine, *mockRepo) {
	gin.SetMode(gin.TestMode)
	repo := new(mockRepo)
	h := NewHandler(NewService(repo, nil, nil))

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Set("user_access", access)
		c.Next()
	})
	h.RegisterRoutes(api)
	return r, repo
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_RecordFuelEntry(t *testing.T) {
	r, repo := setupRouter("simple")
	repo.On("CreateFuelEntry", mock.Anything, mock.AnythingOfType("*fleet.CreateFuelEntryRequest")).
		Return(&FuelEntry{ID: "f1", Liters: 40, TotalCost: 200000}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/fleet/fuel-entries", map[string]any{
		"date": "2024-04-15", "litre": 40, "coutTotal": 200000,
		"station": "Jovena", "vehicule": "v1", "conducteur": "d1",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestHandler_RecordFuelEntry_Invalid(t *testing.T) {
	r, _ := setupRouter("simple")

	w := doJSON(r, http.MethodPost, "/api/v1/fleet/fuel-entries", map[string]any{"litre": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateTrip_RejectsBackwardsOdometer(t *testing.T) {
	r, _ := setupRouter("simple")

	w := doJSON(r, http.MethodPost, "/api/v1/fleet/trips", map[string]any{
		"motif": []string{"Livraison"}, "date": "2024-04-15", "heure": "08:00",
		"kmDepart": 500, "kmArriver": 400, "vehicule": "v1", "conducteur": "d1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "km_arriver")
}

func TestHandler_UpdateTrip_BackendDown(t *testing.T) {
	r, repo := setupRouter("simple")
	repo.On("UpdateTrip", mock.Anything, "t1", mock.Anything).Return(nil, common.ErrUpstream)

	w := doJSON(r, http.MethodPut, "/api/v1/fleet/trips/t1", map[string]any{
		"motif": []string{"Course"}, "date": "2024-04-15", "heure": "08:00",
		"kmDepart": 500, "vehicule": "v1", "conducteur": "d1",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_CompleteScheduled_RequiresTotalAccess(t *testing.T) {
	r, _ := setupRouter("simple")
	w := doJSON(r, http.MethodPatch, "/api/v1/fleet/scheduled-maintenance/s1/complete", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r, repo := setupRouter("total")
	repo.On("CompleteScheduled", mock.Anything, "s1").Return(nil)
	w = doJSON(r, http.MethodPatch, "/api/v1/fleet/scheduled-maintenance/s1/complete", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ScheduleCompleted)
	repo.AssertCalled(t, "CompleteScheduled", mock.Anything, "s1")
}


type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) GetString(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (m *memoryStore) SetWithExpiration(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func TestHandler_RetriedFuelEntryIsRecordedOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(mockRepo)
	repo.On("CreateFuelEntry", mock.Anything, mock.AnythingOfType("*fleet.CreateFuelEntryRequest")).
		Return(&FuelEntry{ID: "f1", Liters: 40, TotalCost: 200000}, nil).Once()

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Next()
	})
	store := &memoryStore{data: map[string]string{}}
	NewHandler(NewService(repo, nil, nil)).RegisterRoutes(api, middleware.Idempotency(store, time.Hour))

	body := []byte(`{"date":"2024-04-15","litre":40,"coutTotal":200000,"station":"Jovena","vehicule":"v1","conducteur":"d1"}`)
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fleet/fuel-entries", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.IdempotencyKeyHeader, "pump-7-0415")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(middleware.IdempotentReplayHeader))
	repo.AssertNumberOfCalls(t, "CreateFuelEntry", 1)
}
