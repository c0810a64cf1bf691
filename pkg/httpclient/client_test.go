package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/richxcame/fleet-analytics/pkg/middleware"
	"github.com/richxcame/fleet-analytics/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flakyBackend(t *testing.T, failures int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"indisponible"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"v1"}]`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_GetRetriesTransientStatus(t *testing.T) {
	srv, calls := flakyBackend(t, 2, http.StatusServiceUnavailable)
	client := NewClient(srv.URL, time.Second, WithRetry(resilience.Policy{Attempts: 3}))

	body, err := client.Get(context.Background(), "/vehicules", nil)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"v1"}]`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetDoesNotRetryRejection(t *testing.T) {
	srv, calls := flakyBackend(t, 5, http.StatusNotFound)
	client := NewClient(srv.URL, time.Second, WithRetry(resilience.Policy{Attempts: 3}))

	_, err := client.Get(context.Background(), "/vehicules/v9", nil)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, resilience.ClassPermanent, resilience.Classify(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_WritesAreNeverRetried(t *testing.T) {
	srv, calls := flakyBackend(t, 5, http.StatusBadGateway)
	client := NewClient(srv.URL, time.Second, WithRetry(resilience.Policy{Attempts: 3}))

	_, err := client.Post(context.Background(), "/carburants", map[string]any{"litre": 40}, nil)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_SendsTokenAndCorrelationID(t *testing.T) {
	var auth, correlation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		correlation = r.Header.Get(middleware.CorrelationIDHeader)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithBearerToken("svc-token"), WithReadRetry(2))
	ctx := logger.ContextWithCorrelationID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	_, err := client.Get(ctx, "/alertes", nil)

	require.NoError(t, err)
	assert.Equal(t, "Bearer svc-token", auth)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", correlation)
}
