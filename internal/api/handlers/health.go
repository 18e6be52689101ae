package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/health"
	"github.com/reframeapp/reframe/pkg/utils"
)

type HealthReporter interface {
	Check(ctx context.Context) health.OverallHealth
}

type HealthHandler struct {
	checker HealthReporter
}

func NewHealthHandler(checker HealthReporter) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth answers 200 when every dependency is healthy and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	result := h.checker.Check(c.Request.Context())

	code := http.StatusOK
	if !result.Healthy() {
		code = http.StatusServiceUnavailable
	}
	utils.SuccessResponse(c, code, result)
}
