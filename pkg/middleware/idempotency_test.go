package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errMiss = errors.New("redis: nil")

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockIdempotencyStore) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

const (
	tripBody     = `{"vehicule":"v1","kmDepart":1000,"motif":["Livraison"]}`
	tripStoreKey = "idempotency:fleet:u1:trip-42"
	replayTTL    = time.Hour
	createdOut   = `{"success":true,"data":{"id":"t9"}}`
)

func setupIdempotencyRouter(store IdempotencyStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Next()
	})
	fleet := r.Group("/fleet", Idempotency(store, replayTTL))
	fleet.POST("/trips", func(c *gin.Context) {
		*calls++
		if strings.Contains(c.Query("fail"), "1") {
			c.JSON(http.StatusBadGateway, gin.H{"success": false})
			return
		}
		c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(createdOut))
	})
	fleet.GET("/trips", func(c *gin.Context) {
		*calls++
		c.Status(http.StatusOK)
	})
	return r
}

func postTrip(r *gin.Engine, target, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ========================================
// IDEMPOTENCY
// ========================================

func TestIdempotency_ReplaysStoredWrite(t *testing.T) {
	store := new(mockIdempotencyStore)
	calls := 0
	r := setupIdempotencyRouter(store, &calls)

	var stored string
	store.On("GetString", mock.Anything, tripStoreKey).Return("", errMiss).Once()
	store.On("SetWithExpiration", mock.Anything, tripStoreKey, mock.AnythingOfType("string"), replayTTL).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil).Once()

	first := postTrip(r, "/fleet/trips", "trip-42", tripBody)
	require.Equal(t, http.StatusCreated, first.Code)
	require.NotEmpty(t, stored)

	store.On("GetString", mock.Anything, tripStoreKey).Return(stored, nil).Once()
	second := postTrip(r, "/fleet/trips", "trip-42", tripBody)

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, createdOut, second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, 1, calls)
	store.AssertExpectations(t)
}

func TestIdempotency_RejectsKeyReuseWithOtherBody(t *testing.T) {
	store := new(mockIdempotencyStore)
	calls := 0
	r := setupIdempotencyRouter(store, &calls)

	entry := `{"status_code":201,"content_type":"application/json","body":{"id":"t9"},"request_hash":"` +
		hashRequest(http.MethodPost, "/fleet/trips", []byte(tripBody)) + `"}`
	store.On("GetString", mock.Anything, tripStoreKey).Return(entry, nil)

	w := postTrip(r, "/fleet/trips", "trip-42", `{"vehicule":"v2","kmDepart":10}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "different request")
	assert.Equal(t, 0, calls)
	store.AssertNotCalled(t, "SetWithExpiration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotency_PassThrough(t *testing.T) {
	t.Run("no key", func(t *testing.T) {
		store := new(mockIdempotencyStore)
		calls := 0
		r := setupIdempotencyRouter(store, &calls)

		w := postTrip(r, "/fleet/trips", "", tripBody)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
		store.AssertNotCalled(t, "GetString", mock.Anything, mock.Anything)
	})

	t.Run("reads are never stored", func(t *testing.T) {
		store := new(mockIdempotencyStore)
		calls := 0
		r := setupIdempotencyRouter(store, &calls)

		req := httptest.NewRequest(http.MethodGet, "/fleet/trips", nil)
		req.Header.Set(IdempotencyKeyHeader, "trip-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		store.AssertNotCalled(t, "GetString", mock.Anything, mock.Anything)
	})

	t.Run("failed writes are not stored", func(t *testing.T) {
		store := new(mockIdempotencyStore)
		calls := 0
		r := setupIdempotencyRouter(store, &calls)
		store.On("GetString", mock.Anything, tripStoreKey).Return("", errMiss)

		w := postTrip(r, "/fleet/trips?fail=1", "trip-42", tripBody)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		store.AssertNotCalled(t, "SetWithExpiration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store outage lets the write through", func(t *testing.T) {
		store := new(mockIdempotencyStore)
		calls := 0
		r := setupIdempotencyRouter(store, &calls)
		store.On("GetString", mock.Anything, tripStoreKey).Return("", errors.New("connection refused"))
		store.On("SetWithExpiration", mock.Anything, tripStoreKey, mock.Anything, replayTTL).Return(errors.New("connection refused"))

		w := postTrip(r, "/fleet/trips", "trip-42", tripBody)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
	})
}
