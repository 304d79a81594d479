package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/services"
)

// reportWindow reads the window query parameter, defaulting to month.
func reportWindow(c *gin.Context) string {
	if window := c.Query("window"); window != "" {
		return window
	}
	return services.WindowMonth
}

func reportError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUnknownWindow) {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	c.JSON(500, gin.H{"error": "Failed to compute report"})
}

func Revenue(svc *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := svc.RevenueForWindow(c.Request.Context(), reportWindow(c))
		if err != nil {
			reportError(c, err)
			return
		}
		c.JSON(200, gin.H{"report": summary})
	}
}

func RevenueByBike(svc *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := svc.RevenueByBike(c.Request.Context(), reportWindow(c))
		if err != nil {
			reportError(c, err)
			return
		}
		c.JSON(200, gin.H{"report": groups})
	}
}

func RevenueByStation(svc *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := svc.RevenueByStation(c.Request.Context(), reportWindow(c))
		if err != nil {
			reportError(c, err)
			return
		}
		c.JSON(200, gin.H{"report": groups})
	}
}

func TopCustomers(svc *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 5
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(400, gin.H{"error": "Invalid limit"})
				return
			}
			limit = parsed
		}

		rankings, err := svc.TopCustomers(c.Request.Context(), reportWindow(c), limit)
		if err != nil {
			reportError(c, err)
			return
		}
		c.JSON(200, gin.H{"report": rankings})
	}
}

func Dashboard(svc *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			reportError(c, err)
			return
		}
		c.JSON(200, gin.H{"stats": stats})
	}
}
