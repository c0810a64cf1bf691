package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestLoader_LoadsRequestedCollections(t *testing.T) {
	repo := new(mockRepo)
	clock := clockz.NewFakeClock()
	loader := NewLoader(repo, clock)

	repo.On("ListVehicles", mock.Anything).Return([]Vehicle{{ID: "v1"}}, nil)
	repo.On("ListTrips", mock.Anything).Return([]Trip{{ID: "t1"}, {ID: "t2"}}, nil)

	snap, err := loader.Load(context.Background(), NeedVehicles|NeedTrips)
	require.NoError(t, err)

	assert.Len(t, snap.Vehicles, 1)
	assert.Len(t, snap.Trips, 2)
	assert.Nil(t, snap.FuelEntries)
	assert.Equal(t, clock.Now(), snap.FetchedAt)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "ListFuelEntries", mock.Anything)
}

func TestLoader_AllCollections(t *testing.T) {
	repo := new(mockRepo)
	loader := NewLoader(repo, nil)

	repo.On("ListVehicles", mock.Anything).Return([]Vehicle{}, nil)
	repo.On("ListDrivers", mock.Anything).Return([]Driver{}, nil)
	repo.On("ListTrips", mock.Anything).Return([]Trip{}, nil)
	repo.On("ListFuelEntries", mock.Anything).Return([]FuelEntry{}, nil)
	repo.On("ListMaintenance", mock.Anything).Return([]MaintenanceEvent{}, nil)
	repo.On("ListScheduled", mock.Anything).Return([]ScheduledMaintenance{}, nil)
	repo.On("ListAlerts", mock.Anything).Return([]Alert{}, nil)

	snap, err := loader.Load(context.Background(), NeedAll)
	require.NoError(t, err)
	assert.False(t, snap.FetchedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestLoader_NeverReturnsPartialSnapshot(t *testing.T) {
	repo := new(mockRepo)
	loader := NewLoader(repo, nil)

	repo.On("ListVehicles", mock.Anything).Return([]Vehicle{{ID: "v1"}}, nil)
	repo.On("ListFuelEntries", mock.Anything).Return(nil, errors.New("carburants: upstream unavailable"))

	snap, err := loader.Load(context.Background(), NeedVehicles|NeedFuel)
	require.Error(t, err)
	assert.Nil(t, snap)
}

func TestLoader_CancelsSiblingsOnFailure(t *testing.T) {
	repo := new(mockRepo)
	loader := NewLoader(repo, nil)

	repo.On("ListDrivers", mock.Anything).Return(nil, errors.New("boom"))
	repo.On("ListTrips", mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
		}
	}).Return(nil, context.Canceled)

	start := time.Now()
	_, err := loader.Load(context.Background(), NeedDrivers|NeedTrips)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
