package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signupsExtract = `username,entityid,timestamp
frank,ABC123,2021-03-05T09:00:00Z
alice,DEF456,2021-03-06T10:00:00Z
`

const mapExtract = `platformusername,entityid,countrycode,city,latitude,longitude,timestamp
frank,ABC123,US,New York,40.71,-74.0,2021-03-05T09:00:00Z
alice,DEF456,US,New York,40.71,-74.0,2021-03-06T10:00:00Z
`

func TestLoader(t *testing.T) {
	normalizer := NewNormalizer(testLogger, time.UTC, 7, nil)
	ctx := context.Background()

	t.Run("no state before the first load", func(t *testing.T) {
		loader := NewLoader(testLogger, &MockObjectStore{}, normalizer, testKeys)
		_, ok := loader.Current()
		assert.False(t, ok)
	})

	t.Run("load derives the dashboard state", func(t *testing.T) {
		store := MockObjectStore{}
		store.On("Fetch", testKeys.Signups).Return([]byte(signupsExtract), nil)
		store.On("Fetch", testKeys.Map).Return([]byte(mapExtract), nil)

		loader := NewLoader(testLogger, &store, normalizer, testKeys)
		require.NoError(t, loader.Load(ctx))

		data, ok := loader.Current()
		require.True(t, ok)
		assert.Len(t, data.Series, 2)
		assert.Len(t, data.DayLog, 2)
		require.Len(t, data.Locations, 1)
		assert.Equal(t, 2, data.Locations[0].Frequency)
		assert.Zero(t, data.SkippedRows)
		assert.False(t, data.LoadedAt.IsZero())
	})

	t.Run("failed reload keeps the previous state", func(t *testing.T) {
		store := MockObjectStore{}
		store.On("Fetch", testKeys.Signups).Return([]byte(signupsExtract), nil).Once()
		store.On("Fetch", testKeys.Map).Return([]byte(mapExtract), nil).Once()
		store.On("Fetch", testKeys.Signups).Return(nil, errors.New("storage down"))

		loader := NewLoader(testLogger, &store, normalizer, testKeys)
		require.NoError(t, loader.Load(ctx))
		before, ok := loader.Current()
		require.True(t, ok)

		assert.Error(t, loader.Reload(ctx))
		after, ok := loader.Current()
		require.True(t, ok)
		assert.Same(t, before, after)
	})

	t.Run("empty extract loads an empty state", func(t *testing.T) {
		store := MockObjectStore{}
		store.On("Fetch", testKeys.Signups).Return([]byte(strings.SplitAfter(signupsExtract, "\n")[0]), nil)
		store.On("Fetch", testKeys.Map).Return([]byte(strings.SplitAfter(mapExtract, "\n")[0]), nil)

		loader := NewLoader(testLogger, &store, normalizer, testKeys)
		require.NoError(t, loader.Load(ctx))
		data, ok := loader.Current()
		require.True(t, ok)
		assert.Empty(t, data.Series)
		assert.Empty(t, data.DayLog)
		assert.Empty(t, data.Locations)
	})
}
