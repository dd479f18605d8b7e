package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/usecase"
)

type (
	// API struct for the quest-admin dashboard service
	API struct {
		dashboard *DashboardController
		export    *ExportController
		loader    *usecase.Loader
		logger    *log.Logger
	}
)

const (
	// DataAPIPrefix logging prefix
	DataAPIPrefix = "api/dash "
)

var (
	errorExtractNotLoaded = common.DetailedError{Status: http.StatusServiceUnavailable, Code: "extract_not_loaded", Message: "no extract has been loaded yet"}
	errorReloadFailed     = common.DetailedError{Status: http.StatusBadGateway, Code: "extract_reload_failed", Message: "reloading the extract from storage failed"}
	errorInvalidDate      = common.DetailedError{Status: http.StatusBadRequest, Code: "invalid_date", Message: "date must be formatted as YYYY-MM-DD"}
	errorInvalidPayload   = common.DetailedError{Status: http.StatusBadRequest, Code: "invalid_click_payload", Message: "request body is not a click payload"}
	errorExportOngoing    = common.DetailedError{Status: http.StatusConflict, Code: "export_ongoing", Message: "an export is already running"}
	errorLoadingEvents    = common.DetailedError{Status: http.StatusInternalServerError, Code: "json_marshal_error", Message: "internal server error"}
)

func InitAPI(dashboard *DashboardController, export *ExportController, loader *usecase.Loader, logger *log.Logger) *API {
	return &API{
		dashboard: dashboard,
		export:    export,
		loader:    loader,
		logger:    logger,
	}
}

// SetHandlers set the API routes
func (a *API) SetHandlers(prefix string, rtr *mux.Router) {

	a.setHandlers(prefix+"/v1", rtr)

	// The export trigger is only wired when the service is configured to
	// reach the query engine.
	if a.export != nil {
		rtr.HandleFunc("/export", a.middleware(a.export.ExportData)).Methods(http.MethodGet)
	}

	rtr.HandleFunc("/status", a.getStatus).Methods(http.MethodGet)
	rtr.HandleFunc("/", a.dashboard.GetPage).Methods(http.MethodGet)
}

func (a *API) setHandlers(prefix string, rtr *mux.Router) {
	rtr.HandleFunc(prefix+"/trend", a.middleware(a.dashboard.getTrend)).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/map", a.middleware(a.dashboard.getMap)).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/table", a.middleware(a.dashboard.getTable)).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/selection", a.middleware(a.dashboard.postSelection)).Methods(http.MethodPost)
	rtr.HandleFunc(prefix+"/reload", a.middleware(a.dashboard.postReload)).Methods(http.MethodPost)
}

type apiStatus struct {
	Status       string     `json:"status"`
	LoadedAt     *time.Time `json:"loadedAt,omitempty"`
	DailyBuckets int        `json:"dailyBuckets"`
	LogRows      int        `json:"logRows"`
	MapPoints    int        `json:"mapPoints"`
	SkippedRows  int        `json:"skippedRows"`
}

// getStatus reports whether an extract is loaded and how much of it
// survived normalization.
func (a *API) getStatus(res http.ResponseWriter, req *http.Request) {
	start := time.Now()
	var s apiStatus
	code := http.StatusOK
	if data, ok := a.loader.Current(); ok {
		s = apiStatus{
			Status:       "OK",
			LoadedAt:     &data.LoadedAt,
			DailyBuckets: len(data.Series),
			LogRows:      len(data.DayLog),
			MapPoints:    len(data.Locations),
			SkippedRows:  data.SkippedRows,
		}
	} else {
		s = apiStatus{Status: errorExtractNotLoaded.Message}
		code = errorExtractNotLoaded.Status
	}
	if jsonDetails, err := json.Marshal(s); err != nil {
		a.jsonError(res, errorLoadingEvents.SetInternalMessage(err), start)
	} else {
		res.Header().Add("content-type", "application/json")
		res.WriteHeader(code)
		res.Write(jsonDetails)
	}
}

// log error detail and write as application/json
func (a *API) jsonError(res http.ResponseWriter, err common.DetailedError, startedAt time.Time) {
	a.logError(&err, startedAt)
	jsonErr, _ := json.Marshal(err)

	res.Header().Add("content-type", "application/json")
	res.WriteHeader(err.Status)
	res.Write(jsonErr)
}
