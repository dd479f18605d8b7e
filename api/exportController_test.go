package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charityquest/quest-admin/common"
)

// blockingExporter holds its Export call until released, so the test can
// observe the controller while a run is ongoing.
type blockingExporter struct {
	started chan struct{}
	release chan struct{}
	runs    int
	mu      sync.Mutex
}

func newBlockingExporter() *blockingExporter {
	return &blockingExporter{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (e *blockingExporter) Export(ctx context.Context) error {
	e.mu.Lock()
	e.runs++
	e.mu.Unlock()
	close(e.started)
	<-e.release
	return nil
}

func (e *blockingExporter) runCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs
}

func callExport(t *testing.T, controller *ExportController) *common.HttpResponseWriter {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	res := &common.HttpResponseWriter{
		URL:    req.URL,
		Header: req.Header,
	}
	require.NoError(t, controller.ExportData(req.Context(), res))
	return res
}

func TestExportDataSingleRun(t *testing.T) {
	exporter := newBlockingExporter()
	controller := NewExportController(testLogger, exporter, time.Minute)

	res := callExport(t, controller)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"status":"started"}`, res.WriteBuffer.String())

	select {
	case <-exporter.started:
	case <-time.After(time.Second):
		t.Fatal("export never started")
	}

	// A second trigger while the first run is ongoing is rejected.
	res = callExport(t, controller)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, 1, exporter.runCount())

	close(exporter.release)
}

func TestExportDataRunsAgainAfterCompletion(t *testing.T) {
	exporter := newBlockingExporter()
	controller := NewExportController(testLogger, exporter, time.Minute)

	res := callExport(t, controller)
	require.Equal(t, http.StatusOK, res.StatusCode)
	<-exporter.started
	close(exporter.release)

	// Wait for the guard to be released by the finished goroutine.
	assert.Eventually(t, func() bool {
		return !controller.running.Load()
	}, time.Second, 5*time.Millisecond)
}
