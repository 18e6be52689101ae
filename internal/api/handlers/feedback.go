package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

type FeedbackService interface {
	Record(ctx context.Context, req models.FeedbackRequest) (string, error)
	Stats(ctx context.Context) (map[string]models.FeedbackStat, error)
}

type FeedbackHandler struct {
	feedback FeedbackService
	logger   *logrus.Logger
}

func NewFeedbackHandler(feedback FeedbackService, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

// HandleFeedback serves POST /feedback
func (h *FeedbackHandler) HandleFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.feedback.Record(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, models.FeedbackResponse{Success: true, ID: id})
}

// HandleStats serves GET /feedback-stats
func (h *FeedbackHandler) HandleStats(c *gin.Context) {
	stats, err := h.feedback.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, models.FeedbackStatsResponse{Stats: stats})
}
