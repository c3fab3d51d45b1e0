package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mlrig/gpuprep/internal/observability"
)

var startedAt = time.Now()

// serveStatusAPI exposes run health and metrics while a long provisioning run
// is in flight. It serves until the process exits; the notebook session does
// not depend on it.
func serveStatusAPI(addr string, logger zerolog.Logger, runID string) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": "gpuprepctl",
			"run_id":  runID,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	go func() {
		if err := r.Run(addr); err != nil {
			logger.Warn().Err(err).Str("addr", addr).Msg("status api stopped")
		}
	}()
}
