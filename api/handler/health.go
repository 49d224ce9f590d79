package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// StatsFunc reports browser page pool usage. nil means the service runs
// static-only (no browser).
type StatsFunc func() models.PoolStats

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(stats StatsFunc, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ps models.PoolStats
		if stats != nil {
			ps = stats()
		}

		status := "healthy"
		if ps.MaxPages > 0 && ps.ActivePages > int(float64(ps.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: ps,
			Version:   "0.1.0",
		})
	}
}
