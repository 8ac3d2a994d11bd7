package routes

import (
	"mytown-issues/controllers"

	"github.com/gin-gonic/gin"
)

// MapRoutes sets up the map marker routes
func MapRoutes(r *gin.Engine, h *controllers.MapController) {
	m := r.Group("/api/map")
	{
		m.GET("/markers", h.GetMarkers)
		m.GET("/config", h.GetMapConfig)
	}
}
