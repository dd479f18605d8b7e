package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/schema"
	"github.com/charityquest/quest-admin/usecase"
)

// DashboardController serves the derived series to the chart, the map and
// the cross-filtered detail table.
type DashboardController struct {
	logger     *log.Logger
	loader     *usecase.Loader
	reconciler *usecase.Reconciler
}

func NewDashboardController(logger *log.Logger, loader *usecase.Loader, reconciler *usecase.Reconciler) *DashboardController {
	return &DashboardController{
		logger:     logger,
		loader:     loader,
		reconciler: reconciler,
	}
}

type trendPoint struct {
	Date       string   `json:"date"`
	Count      int      `json:"count"`
	RollingAvg *float64 `json:"rollingAvg"`
}

type mapPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Frequency int     `json:"frequency"`
}

// getTrend returns the gap-filled daily series for the trend chart.
func (c *DashboardController) getTrend(ctx context.Context, res *common.HttpResponseWriter) error {
	data, ok := c.loader.Current()
	if !ok {
		return res.WriteError(&errorExtractNotLoaded)
	}
	points := make([]trendPoint, 0, len(data.Series))
	for _, point := range data.Series {
		points = append(points, trendPoint{
			Date:       schema.FormatDate(point.Date),
			Count:      point.Count,
			RollingAvg: point.RollingAvg,
		})
	}
	return res.WriteJson(points)
}

// getMap returns the aggregated activity map points.
func (c *DashboardController) getMap(ctx context.Context, res *common.HttpResponseWriter) error {
	data, ok := c.loader.Current()
	if !ok {
		return res.WriteError(&errorExtractNotLoaded)
	}
	points := make([]mapPoint, 0, len(data.Locations))
	for _, location := range data.Locations {
		points = append(points, mapPoint{
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
			City:      location.City,
			Frequency: location.Frequency,
		})
	}
	return res.WriteJson(points)
}

// postSelection resolves a chart click payload, or the default view when
// the body is empty, to a selection and its table rows.
func (c *DashboardController) postSelection(ctx context.Context, res *common.HttpResponseWriter) error {
	data, ok := c.loader.Current()
	if !ok {
		return res.WriteError(&errorExtractNotLoaded)
	}
	var click *schema.ClickEvent
	if len(res.Body) > 0 && string(res.Body) != "null" {
		click = &schema.ClickEvent{}
		if err := json.Unmarshal(res.Body, click); err != nil {
			badPayload := errorInvalidPayload.SetInternalMessage(err)
			return res.WriteError(&badPayload)
		}
	}
	selection, _ := c.reconciler.Resolve(click, data.Series, data.DayLog)
	return res.WriteJson(selection)
}

// getTable gives direct access to one day's rows without going through
// the selection state.
func (c *DashboardController) getTable(ctx context.Context, res *common.HttpResponseWriter) error {
	data, ok := c.loader.Current()
	if !ok {
		return res.WriteError(&errorExtractNotLoaded)
	}
	date, err := schema.ParseDate(res.URL.Query().Get("date"))
	if err != nil {
		badDate := errorInvalidDate.SetInternalMessage(err)
		return res.WriteError(&badDate)
	}
	return res.WriteJson(usecase.BuildTableRows(date, data.DayLog))
}

// postReload re-fetches the extracts from storage and swaps the state.
func (c *DashboardController) postReload(ctx context.Context, res *common.HttpResponseWriter) error {
	if err := c.loader.Reload(ctx); err != nil {
		failed := errorReloadFailed.SetInternalMessage(err)
		return res.WriteError(&failed)
	}
	res.WriteHeader(http.StatusOK)
	return res.WriteString(`{"status":"reloaded"}`)
}
