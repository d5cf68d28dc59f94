package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/pkg/logger"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"

	readinessTimeout = 2 * time.Second
)

type healthResponse struct {
	Status  string                 `json:"status"`
	Checks  map[string]string      `json:"checks,omitempty"`
	Workers map[string]interface{} `json:"workers,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: healthStatusOK})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if s.db == nil {
		checks["database"] = "unconfigured"
		allHealthy = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			logger.Warn("Readiness check failed", zap.String("check", "database"), zap.Error(err))
			checks["database"] = "error"
			allHealthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	status := healthStatusOK
	httpStatus := http.StatusOK
	if !allHealthy {
		status = healthStatusDegraded
		httpStatus = http.StatusServiceUnavailable
	}

	resp := healthResponse{
		Status: status,
		Checks: checks,
	}
	if s.pools != nil {
		resp.Workers = s.pools.Metrics()
	}
	c.JSON(httpStatus, resp)
}
