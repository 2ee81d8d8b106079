package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marine-conservation-ph/reef-survey-viewer/pipeline"
)

// handleV1ListSites returns all monitored sites
// GET /api/v1/core/sites
func (s *Server) handleV1ListSites(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sites, err := s.store.ListSites(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": sites,
		"meta": gin.H{
			"count": len(sites),
		},
	})
}

// handleV1GetSite returns details for a specific site
// GET /api/v1/core/sites/:id
func (s *Server) handleV1GetSite(c *gin.Context) {
	siteID, ok := parseSiteID(c, c.Param("id"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if site == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": site,
	})
}

// handleV1ListMetrics returns the supported metric catalog
// GET /api/v1/core/metrics
func (s *Server) handleV1ListMetrics(c *gin.Context) {
	metrics := pipeline.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"data": metrics,
		"meta": gin.H{
			"count": len(metrics),
		},
	})
}

func parseSiteID(c *gin.Context, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site id"})
		return 0, false
	}
	return id, true
}

func parseMetric(c *gin.Context) (pipeline.Metric, bool) {
	key := c.Param("metric")
	m, ok := pipeline.MetricByKey(key)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric: " + key})
		return pipeline.Metric{}, false
	}
	return m, true
}

// parseDateRange reads optional start/end query params (YYYY-MM-DD).
func parseDateRange(c *gin.Context) (pipeline.DateRange, bool) {
	var dr pipeline.DateRange
	if start := c.Query("start"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, expected YYYY-MM-DD"})
			return dr, false
		}
		dr.Start = t
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, expected YYYY-MM-DD"})
			return dr, false
		}
		dr.End = t
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end date is before start date"})
		return dr, false
	}
	return dr, true
}

func rangeKey(dr pipeline.DateRange) string {
	return dr.Start.Format("2006-01-02") + ".." + dr.End.Format("2006-01-02")
}
