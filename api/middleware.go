package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/charityquest/quest-admin/common"
)

// HandlerLoggerFunc expose our httpResponseWriter API
type HandlerLoggerFunc func(context.Context, *common.HttpResponseWriter) error

// maxBodyBytes bounds the click payload size, a clickData structure is tiny.
const maxBodyBytes = 1 << 20

// middleware to log received requests and hand the handlers a buffered
// response writer
func (a *API) middleware(fn HandlerLoggerFunc) http.HandlerFunc {
	// The mux handler func:
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		start := time.Now().UTC()

		// It is recommended by go to get the request information before writing
		// So get theses now

		logErrors := make([]string, 0, 5)
		logRequest := fmt.Sprintf("%s - %s %s HTTP/%d.%d", r.RemoteAddr, r.Method, r.URL.String(), r.ProtoMajor, r.ProtoMinor)

		traceID := r.Header.Get("x-quest-trace-session")
		if !common.IsValidUUID(traceID) {
			// We want a trace id, but for now we do not enforce it
			logErrors = append(logErrors, fmt.Sprintf("no-trace:\"%s\"", traceID))
			traceID = uuid.New().String()
		}

		// Make our context
		ctx := common.TimeItContext(r.Context())

		res := common.HttpResponseWriter{
			Header:     r.Header.Clone(), // Clone the header, to be sure
			URL:        r.URL,
			VARS:       mux.Vars(r),
			TraceID:    traceID,
			StatusCode: http.StatusOK, // Default status
			Err:        nil,
		}

		if r.Body != nil {
			body, errBody := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if errBody != nil {
				logErrors = append(logErrors, fmt.Sprintf("ebody:\"%s\"", errBody))
			}
			res.Body = body
		}

		// Mainteners: No read from the request below this point!

		// Make the call to the API function if we can:
		if res.Err == nil {
			err = fn(ctx, &res)
			if err != nil {
				logErrors = append(logErrors, fmt.Sprintf("efn:\"%s\"", err))
			}
		}

		// We will send a JSON, so advertise it for all of our requests
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(res.StatusCode)
		_, err = w.Write([]byte(res.WriteBuffer.String()))
		if err != nil {
			logErrors = append(logErrors, fmt.Sprintf("eww:\"%s\"", err))
		}

		// Log errors management
		if res.Err != nil {
			if res.Err.Code != "" {
				logErrors = append(logErrors, fmt.Sprintf("code:\"%s\"", res.Err.Code))
			}
			if res.Err.InternalMessage != "" {
				logErrors = append(logErrors, fmt.Sprintf("err:\"%s\"", res.Err.InternalMessage))
			}
		}

		// Get the time spent on it
		end := time.Now().UTC()
		dur := end.Sub(start).Milliseconds()
		// Log the message
		var logError string
		if len(logErrors) > 0 {
			logError = fmt.Sprintf("{%s} - ", strings.Join(logErrors, ","))
		}

		timerResults := common.TimeResults(ctx)
		if len(timerResults) > 0 {
			timerResults = fmt.Sprintf("{%s} %d ms", timerResults, dur)
		} else {
			timerResults = fmt.Sprintf("%d ms", dur)
		}
		a.logger.Printf("{%s} %s %d - %s%s - %d bytes", traceID, logRequest, res.StatusCode, logError, timerResults, res.Size)
	}
}

func (a *API) logError(err *common.DetailedError, startedAt time.Time) {
	err.ID = uuid.New().String()
	a.logger.Println(DataAPIPrefix, fmt.Sprintf("[%s][%s] failed after [%.3f]secs with error [%s][%s] ", err.ID, err.Code, time.Since(startedAt).Seconds(), err.Message, err.InternalMessage))
}
