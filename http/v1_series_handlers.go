package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marine-conservation-ph/reef-survey-viewer/pipeline"
)

// seriesResponse is the chart-ready payload for a single-site series.
type seriesResponse struct {
	Label  string               `json:"label"`
	Metric pipeline.Metric      `json:"metric"`
	Rows   []pipeline.SeriesRow `json:"rows"`
	Bridge pipeline.Bridge      `json:"bridge"`
}

// handleV1SiteSeries returns one site's aligned quarterly series plus the
// gap bridge annotation
// GET /api/v1/series/:site_id/:metric?start=2017-01-01&end=2025-04-01
func (s *Server) handleV1SiteSeries(c *gin.Context) {
	siteID, ok := parseSiteID(c, c.Param("site_id"))
	if !ok {
		return
	}
	metric, ok := parseMetric(c)
	if !ok {
		return
	}
	dr, ok := parseDateRange(c)
	if !ok {
		return
	}

	key := pipeline.Key("series", strconv.Itoa(siteID), metric.Key, rangeKey(dr))
	if cached, ok := s.cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	series, err := s.pipe.BuildSeries(ctx, siteID, metric, dr)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	resp := seriesResponse{
		Label:  series.Label,
		Metric: series.Metric,
		Rows:   series.Rows(),
		Bridge: pipeline.GapBridge(series),
	}
	s.cache.Put(key, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
