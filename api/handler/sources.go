package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrodash/pizarra/extract"
	"github.com/agrodash/pizarra/models"
	"github.com/agrodash/pizarra/quotes"
)

// Sources returns a handler for GET /api/fuentes.
func Sources(svc *quotes.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Sources())
	}
}

// Snapshot returns a handler for GET /api/fuentes/:id/snapshot.
//
// Query parameters:
//   - format: markdown (default), text or html; ignored for JSON sources
//   - selector: optional CSS selector narrowing the rendered markup
func Snapshot(svc *quotes.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", extract.FormatMarkdown)
		if !extract.ValidFormat(format) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "formato inválido: " + format})
			return
		}

		resp, err := svc.Snapshot(c.Request.Context(), c.Param("id"), format, c.Query("selector"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a SourceError onto a status code.
func respondError(c *gin.Context, err error) {
	var serr *models.SourceError
	if !errors.As(err, &serr) {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusBadGateway
	switch serr.Code {
	case models.ErrCodeUnknownSource:
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: serr.Message, Code: serr.Code})
		return
	case models.ErrCodeBadSelector:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: serr.Error(), Code: serr.Code})
		return
	case models.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, models.ErrorResponse{Error: serr.Error(), Code: serr.Code})
}
