// Package api exposes the aggregation trigger and the read endpoints used by
// dashboards and renderers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/scheduler"
)

// RunTrigger starts an aggregation run.
type RunTrigger interface {
	RunOnce(ctx context.Context) (domain.RunSummary, error)
}

// HealthLister reads stored feed health.
type HealthLister interface {
	List(ctx context.Context) ([]domain.FeedHealth, error)
}

// ContentLister reads unexpired content rows.
type ContentLister interface {
	ListActive(ctx context.Context, category string) ([]domain.ContentCacheEntry, error)
}

// LinkValidator validates ad-hoc links.
type LinkValidator interface {
	Validate(ctx context.Context, rawURL string) domain.ValidationResult
	ValidateBatch(ctx context.Context, urls []string) (map[string]domain.ValidationResult, error)
}

// Handler serves the v1 API.
type Handler struct {
	lifetime  context.Context
	runs      RunTrigger
	health    HealthLister
	content   ContentLister
	validator LinkValidator
	logger    logger.Logger
}

// NewHandler wires the handler's collaborators. Aggregation runs triggered
// through the API end when lifetime ends.
func NewHandler(
	lifetime context.Context,
	runs RunTrigger,
	health HealthLister,
	content ContentLister,
	validator LinkValidator,
	log logger.Logger,
) *Handler {
	return &Handler{
		lifetime:  lifetime,
		runs:      runs,
		health:    health,
		content:   content,
		validator: validator,
		logger:    log,
	}
}

// requestLogger returns the request-scoped logger set by the request-id middleware.
func (h *Handler) requestLogger(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context(), h.logger)
}

type batchRequest struct {
	URLs []string `binding:"required,min=1,max=100,dive,required" json:"urls"`
}

// RunAggregation triggers a run and returns its summary. The run survives a
// dropped client connection but not the end of the handler's lifetime.
func (h *Handler) RunAggregation(c *gin.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	stop := context.AfterFunc(h.lifetime, cancel)
	defer stop()

	summary, err := h.runs.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "An aggregation run is already in progress"})
			return
		}
		h.requestLogger(c).Error("Aggregation run failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Aggregation run failed"})
		return
	}

	h.requestLogger(c).Info("Aggregation run completed via API",
		logger.String("run_id", summary.RunID),
		logger.Int("processed", summary.Processed),
		logger.Int("failed", summary.Failed()),
	)

	c.JSON(http.StatusOK, summary)
}

// ListFeedHealth returns every stored health record.
func (h *Handler) ListFeedHealth(c *gin.Context) {
	feeds, err := h.health.List(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("Failed to list feed health", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feed health"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"count": len(feeds),
	})
}

// ListContent returns unexpired content, optionally filtered by category.
func (h *Handler) ListContent(c *gin.Context) {
	category := c.Query("category")

	items, err := h.content.ListActive(c.Request.Context(), category)
	if err != nil {
		h.requestLogger(c).Error("Failed to list content",
			logger.String("category", category),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// ValidateLink validates the url query parameter.
func (h *Handler) ValidateLink(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	c.JSON(http.StatusOK, h.validator.Validate(c.Request.Context(), target))
}

// ValidateLinks validates a JSON batch of URLs.
func (h *Handler) ValidateLinks(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.requestLogger(c).Debug("Invalid request body", logger.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	results, err := h.validator.ValidateBatch(c.Request.Context(), req.URLs)
	if err != nil {
		h.requestLogger(c).Warn("Link validation interrupted", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Link validation interrupted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}
