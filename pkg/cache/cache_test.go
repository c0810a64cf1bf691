package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	redisclient "github.com/richxcame/fleet-analytics/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fuelTotals struct {
	Liters float64 `json:"liters"`
	Cost   float64 `json:"cost"`
}

func newTestManager() (*Manager, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewManager(redisclient.Wrap(db)), mock
}

func TestManager_GetHit(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectGet("analytics:fuel").SetVal(`{"liters":75,"cost":380000}`)

	var got fuelTotals
	require.NoError(t, m.Get(context.Background(), "analytics:fuel", &got))
	assert.Equal(t, fuelTotals{Liters: 75, Cost: 380000}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_GetMiss(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectGet("analytics:fuel").RedisNil()

	var got fuelTotals
	err := m.Get(context.Background(), "analytics:fuel", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestManager_GetOrSet(t *testing.T) {
	ttl := 30 * time.Second

	t.Run("computes and stores on miss", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").RedisNil()
		mock.ExpectSet("k", `{"liters":40,"cost":200000}`, ttl).SetVal("OK")

		calls := 0
		var got fuelTotals
		err := m.GetOrSet(context.Background(), "k", ttl, &got, func() (interface{}, error) {
			calls++
			return fuelTotals{Liters: 40, Cost: 200000}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 40.0, got.Liters)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips computation on hit", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").SetVal(`{"liters":1,"cost":2}`)

		var got fuelTotals
		err := m.GetOrSet(context.Background(), "k", ttl, &got, func() (interface{}, error) {
			t.Fatal("compute should not run on a hit")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2.0, got.Cost)
	})

	t.Run("redis outage still returns computed value", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").SetErr(errors.New("connection refused"))
		mock.ExpectSet("k", `{"liters":3,"cost":4}`, ttl).SetErr(errors.New("connection refused"))

		var got fuelTotals
		err := m.GetOrSet(context.Background(), "k", ttl, &got, func() (interface{}, error) {
			return fuelTotals{Liters: 3, Cost: 4}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3.0, got.Liters)
	})

	t.Run("compute error propagates", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").RedisNil()

		boom := errors.New("backend down")
		var got fuelTotals
		err := m.GetOrSet(context.Background(), "k", ttl, &got, func() (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestManager_Invalidate(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectScan(0, "analytics:*", 100).SetVal([]string{"analytics:dashboard", "analytics:fuel:month"}, 0)
	mock.ExpectDel("analytics:dashboard", "analytics:fuel:month").SetVal(2)

	require.NoError(t, m.Invalidate(context.Background(), AnalyticsPrefix))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeys_Analytics(t *testing.T) {
	assert.Equal(t, "analytics:dashboard", Keys.Analytics("dashboard"))
	assert.Equal(t, "analytics:fuel:month:2024-04-01:-", Keys.Analytics("fuel", "month", "2024-04-01", ""))
}
