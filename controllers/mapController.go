package controllers

import (
	"net/http"

	"mytown-issues/mapview"
	"mytown-issues/models"
	"mytown-issues/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MapController struct {
	Issues      store.IssueStore
	AccessToken string
	Logger      *zap.Logger
}

// GetMarkers returns the filtered issues as GeoJSON markers
func (h *MapController) GetMarkers(c *gin.Context) {
	var filter models.IssueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issues, err := h.Issues.Filter(c.Request.Context(), filter)
	if err != nil {
		h.Logger.Error("Failed to retrieve issues for map", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	c.JSON(http.StatusOK, mapview.Markers(issues))
}

// GetMapConfig returns what the client needs to initialise the map
func (h *MapController) GetMapConfig(c *gin.Context) {
	cfg, err := mapview.NewConfig(h.AccessToken)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Map is not configured"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}
