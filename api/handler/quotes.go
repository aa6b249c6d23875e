package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrodash/pizarra/quotes"
)

// Quote returns a handler for one quote route. Upstream failures are
// already folded into the body as nulls or fallbacks, so the status is
// always 200.
func Quote(route quotes.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, route.Run(c.Request.Context()))
	}
}
