package api

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charityquest/quest-admin/common"
)

// ExporterUseCase runs one full extraction batch.
type ExporterUseCase interface {
	Export(ctx context.Context) error
}

// ExportController triggers an extraction run in the background. Only one
// run can be ongoing at a time.
type ExportController struct {
	logger   *log.Logger
	exporter ExporterUseCase
	maxWait  time.Duration
	running  atomic.Bool
}

func NewExportController(logger *log.Logger, exporter ExporterUseCase, maxWait time.Duration) *ExportController {
	return &ExportController{
		logger:   logger,
		exporter: exporter,
		maxWait:  maxWait,
	}
}

// ExportData launches the extraction batch asynchronously and returns
// immediately.
func (c *ExportController) ExportData(ctx context.Context, res *common.HttpResponseWriter) error {
	if !c.running.CompareAndSwap(false, true) {
		return res.WriteError(&errorExportOngoing)
	}
	go func() {
		defer c.running.Store(false)
		backgroundCtx, cancel := context.WithTimeout(common.TimeItContext(context.Background()), c.maxWait)
		defer cancel()
		c.logger.Println("launching export process")
		if err := c.exporter.Export(backgroundCtx); err != nil {
			c.logger.Printf("export failed: %v", err)
			return
		}
		c.logger.Println("export finished with success, terminating go routine")
	}()
	res.WriteHeader(http.StatusOK)
	return res.WriteString(`{"status":"started"}`)
}
