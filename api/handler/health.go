package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrodash/pizarra/models"
)

// Version is reported by GET /api/health.
const Version = "1.0.0"

// Health returns a handler for GET /api/health. It never touches an upstream;
// browserPages reports the live page count of the browser engine.
func Health(browserSources []string, browserPages func() int, startTime time.Time) gin.HandlerFunc {
	if browserSources == nil {
		browserSources = []string{}
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         "ok",
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			Version:        Version,
			BrowserSources: browserSources,
			BrowserPages:   browserPages(),
		})
	}
}
