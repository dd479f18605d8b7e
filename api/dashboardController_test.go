package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/usecase"
)

var testLogger = log.New(os.Stdout, "api-test ", log.LstdFlags|log.Lshortfile)

var testKeys = common.ExtractKeys{
	Signups: "clean_data_admin_dash/quest_signups.csv",
	Map:     "clean_data_admin_dash/map_data.csv",
	Daily:   "clean_data_admin_dash/signups_daily.csv",
}

const signupsExtract = `username,entityid,timestamp
frank,ABC123,2021-03-05T09:00:00Z
alice,DEF456,2021-03-05T10:00:00Z
bob,GHI789,2021-03-07T11:00:00Z
`

const mapExtract = `platformusername,entityid,countrycode,city,latitude,longitude,timestamp
frank,ABC123,US,New York,40.71,-74.0,2021-03-05T09:00:00Z
`

func testRouter(t *testing.T, loaded bool) *mux.Router {
	t.Helper()
	store := &usecase.MockObjectStore{}
	store.On("Fetch", testKeys.Signups).Return([]byte(signupsExtract), nil)
	store.On("Fetch", testKeys.Map).Return([]byte(mapExtract), nil)

	normalizer := usecase.NewNormalizer(testLogger, time.UTC, 7, nil)
	loader := usecase.NewLoader(testLogger, store, normalizer, testKeys)
	if loaded {
		require.NoError(t, loader.Load(context.Background()))
	}
	dashboard := NewDashboardController(testLogger, loader, usecase.NewReconciler(testLogger))
	a := InitAPI(dashboard, nil, loader, testLogger)
	rtr := mux.NewRouter()
	a.SetHandlers("", rtr)
	return rtr
}

func TestGetTrend(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/trend", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var points []trendPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	// 2021-03-05 .. 2021-03-07, gap-filled
	require.Len(t, points, 3)
	assert.Equal(t, trendPoint{Date: "2021-03-05", Count: 2}, points[0])
	assert.Equal(t, trendPoint{Date: "2021-03-06", Count: 0}, points[1])
	assert.Equal(t, 1, points[2].Count)
}

func TestGetTrendBeforeLoad(t *testing.T) {
	rtr := testRouter(t, false)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/trend", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var detail common.DetailedError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "extract_not_loaded", detail.Code)
}

func TestGetMap(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/map", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var points []mapPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, mapPoint{Latitude: 40.71, Longitude: -74.0, City: "New York", Frequency: 1}, points[0])
}

func TestPostSelection(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantDate string
		wantRows int
	}{
		{
			name:     "empty body defaults to the most recent day",
			body:     "",
			wantDate: "2021-03-07",
			wantRows: 1,
		},
		{
			name:     "null payload defaults too",
			body:     "null",
			wantDate: "2021-03-07",
			wantRows: 1,
		},
		{
			name:     "click selects the clicked day",
			body:     `{"points":[{"x":"2021-03-05"}]}`,
			wantDate: "2021-03-05",
			wantRows: 2,
		},
		{
			name:     "datetime x matches nothing",
			body:     `{"points":[{"x":"2021-03-05T00:00:00"}]}`,
			wantDate: "2021-03-05T00:00:00",
			wantRows: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rtr := testRouter(t, true)
			rec := httptest.NewRecorder()
			rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/selection", strings.NewReader(tt.body)))

			require.Equal(t, http.StatusOK, rec.Code)
			var selection usecase.Selection
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &selection))
			assert.Equal(t, tt.wantDate, selection.Date)
			assert.Len(t, selection.Rows, tt.wantRows)
		})
	}
}

func TestPostSelectionBadPayload(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/selection", strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var detail common.DetailedError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "invalid_click_payload", detail.Code)
}

func TestGetTable(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/table?date=2021-03-05", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []usecase.TableRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "frank", rows[0].Username)
	assert.Equal(t, "2021-03-05", rows[0].Date)
}

func TestGetTableInvalidDate(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/table?date=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var s apiStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "OK", s.Status)
	assert.Equal(t, 3, s.DailyBuckets)
	assert.Equal(t, 3, s.LogRows)
	assert.Equal(t, 1, s.MapPoints)

	rtr = testRouter(t, false)
	rec = httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReload(t *testing.T) {
	rtr := testRouter(t, false)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardPage(t *testing.T) {
	rtr := testRouter(t, true)
	rec := httptest.NewRecorder()
	rtr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Charity Quest Administrator Dashboard")
}
