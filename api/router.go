package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agrodash/pizarra/api/handler"
	"github.com/agrodash/pizarra/api/middleware"
	"github.com/agrodash/pizarra/config"
	"github.com/agrodash/pizarra/quotes"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain: Recovery → Logger → CORS → Trace.
func NewRouter(svc *quotes.Service, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(middleware.Trace(cfg.Telemetry.ServiceName))

	api := r.Group("/api")

	for _, route := range svc.Routes() {
		api.GET("/"+route.Name, handler.Quote(route))
	}

	api.GET("/health", handler.Health(cfg.Browser.Sources, svc.BrowserPages, startTime))
	api.GET("/fuentes", handler.Sources(svc))
	api.GET("/fuentes/:id/snapshot", handler.Snapshot(svc))

	return r
}
