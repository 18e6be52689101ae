package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

type AccountService interface {
	Usage(ctx context.Context, id *identity.Identity) (*models.UsageResponse, error)
	History(ctx context.Context, userID string, limit int) ([]models.Rewrite, error)
	ClearHistory(ctx context.Context, userID string) (int64, error)
	DeleteRewrite(ctx context.Context, userID, rewriteID string) error
}

type CourseRecommender interface {
	Recommend(ctx context.Context, userID string) (*models.CourseRecommendation, error)
}

// AccountHandler serves the signed-in user's own data. Every route sits
// behind RequireUser.
type AccountHandler struct {
	account AccountService
	courses CourseRecommender
	logger  *logrus.Logger
}

func NewAccountHandler(account AccountService, courses CourseRecommender, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{account: account, courses: courses, logger: logger}
}

func (h *AccountHandler) HandleUsage(c *gin.Context) {
	usage, err := h.account.Usage(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, usage)
}

func (h *AccountHandler) HandleHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be a number", err)
			return
		}
		limit = parsed
	}

	rewrites, err := h.account.History(c.Request.Context(), middleware.CurrentIdentity(c).UserID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, models.HistoryResponse{Rewrites: rewrites})
}

func (h *AccountHandler) HandleClearHistory(c *gin.Context) {
	deleted, err := h.account.ClearHistory(c.Request.Context(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, models.DeleteHistoryResponse{Success: true, Deleted: deleted})
}

func (h *AccountHandler) HandleDeleteRewrite(c *gin.Context) {
	if err := h.account.DeleteRewrite(c.Request.Context(), middleware.CurrentIdentity(c).UserID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, models.DeleteHistoryResponse{Success: true, Deleted: 1})
}

func (h *AccountHandler) HandleRecommendCourse(c *gin.Context) {
	rec, err := h.courses.Recommend(c.Request.Context(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, rec)
}
