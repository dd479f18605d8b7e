package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charityquest/quest-admin/schema"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := schema.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testSeries(t *testing.T) schema.DailySeries {
	return schema.DailySeries{
		{Date: day(t, "2021-03-04"), Count: 1},
		{Date: day(t, "2021-03-05"), Count: 2},
		{Date: day(t, "2021-03-06"), Count: 1},
	}
}

func testDayLog(t *testing.T) []schema.UserDayRow {
	return []schema.UserDayRow{
		{UserID: "a", Username: "alice", LocalTime: time.Date(2021, 3, 4, 9, 0, 0, 0, time.UTC), Date: day(t, "2021-03-04")},
		{UserID: "b", Username: "bob", LocalTime: time.Date(2021, 3, 5, 10, 0, 0, 0, time.UTC), Date: day(t, "2021-03-05")},
		{UserID: "c", Username: "carol", LocalTime: time.Date(2021, 3, 5, 11, 0, 0, 0, time.UTC), Date: day(t, "2021-03-05")},
		{UserID: "d", Username: "dave", LocalTime: time.Date(2021, 3, 6, 12, 0, 0, 0, time.UTC), Date: day(t, "2021-03-06")},
	}
}

func click(x string) *schema.ClickEvent {
	return &schema.ClickEvent{Points: []schema.ClickPoint{{X: x}}}
}

func TestResolveDefaultsToMostRecentDay(t *testing.T) {
	reconciler := NewReconciler(testLogger)
	selection, ok := reconciler.Resolve(nil, testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-06", selection.Date)
	require.Len(t, selection.Rows, 1)
	assert.Equal(t, "dave", selection.Rows[0].Username)
}

func TestResolveClickFiltersInOriginalOrder(t *testing.T) {
	reconciler := NewReconciler(testLogger)
	selection, ok := reconciler.Resolve(click("2021-03-05"), testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-05", selection.Date)
	require.Len(t, selection.Rows, 2)
	assert.Equal(t, "bob", selection.Rows[0].Username)
	assert.Equal(t, "carol", selection.Rows[1].Username)
	assert.Equal(t, "2021-03-05", selection.Rows[0].Date)
	assert.Equal(t, "10:00:00", selection.Rows[0].Time)
}

func TestResolveClickWithNoMatchingRows(t *testing.T) {
	reconciler := NewReconciler(testLogger)
	selection, ok := reconciler.Resolve(click("2020-01-01"), testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Empty(t, selection.Rows)
}

func TestResolveDatetimeTypedClickMatchesNothing(t *testing.T) {
	// A click x carrying a datetime instead of a plain date must degrade
	// to an empty row set, not fail.
	reconciler := NewReconciler(testLogger)
	selection, ok := reconciler.Resolve(click("2021-03-05T00:00:00"), testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Empty(t, selection.Rows)

	// and it must not disturb a previous valid selection
	_, _ = reconciler.Resolve(click("2021-03-04"), testSeries(t), testDayLog(t))
	_, _ = reconciler.Resolve(click("garbage"), testSeries(t), testDayLog(t))
	selection, ok = reconciler.Resolve(nil, testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-04", selection.Date)
}

func TestResolveEmptySeries(t *testing.T) {
	reconciler := NewReconciler(testLogger)
	selection, ok := reconciler.Resolve(nil, schema.DailySeries{}, nil)
	assert.False(t, ok)
	assert.Empty(t, selection.Rows)
}

func TestResolveNeverUnselects(t *testing.T) {
	reconciler := NewReconciler(testLogger)

	// first click selects
	selection, ok := reconciler.Resolve(click("2021-03-05"), testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-05", selection.Date)

	// a later call without interaction keeps the selection instead of
	// falling back to the default view
	selection, ok = reconciler.Resolve(nil, testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-05", selection.Date)

	// a new click moves the selection
	selection, ok = reconciler.Resolve(click("2021-03-04"), testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-04", selection.Date)
}

func TestResolveClickWithoutPointsUsesDefault(t *testing.T) {
	reconciler := NewReconciler(testLogger)
	selection, ok := reconciler.Resolve(&schema.ClickEvent{}, testSeries(t), testDayLog(t))
	require.True(t, ok)
	assert.Equal(t, "2021-03-06", selection.Date)
}
