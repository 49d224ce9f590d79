// Package api wires the HTTP surface: the grader-facing quiz endpoint plus
// health probes.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/api/handler"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/api/middleware"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/solver"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	/quiz:   RateLimit → Auth
//
// Health endpoints are intentionally outside auth so monitoring probes
// always work.
func NewRouter(ctrl *solver.Controller, stats handler.StatsFunc, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Root liveness probe, kept trivially cheap.
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "quizd", "status": "ok"})
	})

	r.GET("/api/v1/health", handler.Health(stats, startTime))

	r.POST("/quiz",
		middleware.RateLimit(cfg.RateLimit),
		middleware.Auth(cfg.Auth),
		handler.Solve(ctrl, cfg.Solver.DefaultBudget),
	)

	return r
}
