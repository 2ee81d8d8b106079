package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marine-conservation-ph/reef-survey-viewer/pipeline"
)

// handleV1Average returns a municipality or all-sites average series
// GET /api/v1/summary/average/:metric?scope=municipality&municipality=Siaton&exclude=3
func (s *Server) handleV1Average(c *gin.Context) {
	metric, ok := parseMetric(c)
	if !ok {
		return
	}
	dr, ok := parseDateRange(c)
	if !ok {
		return
	}

	grouping := pipeline.Grouping{}
	switch scope := c.DefaultQuery("scope", "all"); scope {
	case "all":
	case "municipality":
		grouping.Municipality = c.Query("municipality")
		if grouping.Municipality == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "municipality is required for scope=municipality"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scope, expected all or municipality"})
		return
	}

	if excludeStr := c.Query("exclude"); excludeStr != "" {
		id, err := strconv.Atoi(excludeStr)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exclude site id"})
			return
		}
		grouping.ExcludeSiteID = id
	}

	key := pipeline.Key("average", grouping.Municipality, strconv.Itoa(grouping.ExcludeSiteID), metric.Key, rangeKey(dr))
	if cached, ok := s.cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	series, err := s.pipe.BuildAggregate(ctx, grouping, metric, dr)
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

// handleV1Comparison returns the wide multi-entity table
// GET /api/v1/summary/comparison/:metric?primary=3&compare=7,municipality:Siaton,all
func (s *Server) handleV1Comparison(c *gin.Context) {
	metric, ok := parseMetric(c)
	if !ok {
		return
	}
	dr, ok := parseDateRange(c)
	if !ok {
		return
	}
	primaryID, ok := parseSiteID(c, c.Query("primary"))
	if !ok {
		return
	}

	compare := splitList(c.Query("compare"))

	key := pipeline.Key("comparison", strconv.Itoa(primaryID), strings.Join(compare, ","), metric.Key, rangeKey(dr))
	if cached, ok := s.cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	table, err := s.pipe.BuildComparison(ctx, primaryID, compare, metric, dr)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	s.cache.Put(key, table)

	c.JSON(http.StatusOK, gin.H{
		"data": table,
		"meta": gin.H{
			"buckets":  len(table.Buckets),
			"entities": len(table.Columns),
		},
	})
}

// handleV1Snapshot returns the single-bucket bar table across all sites
// GET /api/v1/summary/snapshot/:metric?bucket=MAR-MAY%202025
func (s *Server) handleV1Snapshot(c *gin.Context) {
	metric, ok := parseMetric(c)
	if !ok {
		return
	}
	bucket := c.Query("bucket")

	key := pipeline.Key("snapshot", metric.Key, bucket)
	if cached, ok := s.cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	snapshot, err := s.pipe.BuildSnapshot(ctx, metric, bucket)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	s.cache.Put(key, snapshot)

	c.JSON(http.StatusOK, gin.H{
		"data": snapshot,
		"meta": gin.H{
			"sites": len(snapshot.Rows),
		},
	})
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
