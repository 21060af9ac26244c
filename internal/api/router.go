package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	inframetrics "github.com/jonesrussell/north-cloud/link-health/infrastructure/metrics"
)

// Routes returns a route installer for the gin server. metricsHandler serves
// /metrics; httpMetrics may be nil.
func Routes(h *Handler, httpMetrics *inframetrics.HTTPMetrics, metricsHandler http.Handler) func(*gin.Engine) {
	return func(router *gin.Engine) {
		if httpMetrics != nil {
			router.Use(httpMetrics.Middleware())
		}
		if metricsHandler != nil {
			router.GET("/metrics", gin.WrapH(metricsHandler))
		}

		v1 := router.Group("/api/v1")

		v1.POST("/aggregations/run", h.RunAggregation)
		v1.GET("/feeds/health", h.ListFeedHealth)
		v1.GET("/content", h.ListContent)

		links := v1.Group("/links")
		links.GET("/validate", h.ValidateLink)
		links.POST("/validate", h.ValidateLinks)
	}
}
