package http

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/core, /api/v1/series, /api/v1/summary
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	// Core endpoints - site metadata and the metric catalog
	core := v1.Group("/core")
	{
		core.GET("/sites", s.handleV1ListSites)
		core.GET("/sites/:id", s.handleV1GetSite)
		core.GET("/metrics", s.handleV1ListMetrics)
	}

	// Series endpoints - per-site aligned time series with gap annotation
	series := v1.Group("/series")
	{
		series.GET("/:site_id/:metric", s.handleV1SiteSeries)
	}

	// Summary endpoints - cross-site aggregates, comparisons, snapshots
	summary := v1.Group("/summary")
	{
		summary.GET("/average/:metric", s.handleV1Average)
		summary.GET("/comparison/:metric", s.handleV1Comparison)
		summary.GET("/snapshot/:metric", s.handleV1Snapshot)
	}
}
