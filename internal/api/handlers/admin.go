package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

type RoleManager interface {
	List(ctx context.Context) ([]models.UserRole, error)
	ApplyBatch(ctx context.Context, actorID string, changes []models.RoleChange) (int, error)
}

// AdminHandler routes sit behind RequireAdmin.
type AdminHandler struct {
	roles  RoleManager
	logger *logrus.Logger
}

func NewAdminHandler(roles RoleManager, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{roles: roles, logger: logger}
}

func (h *AdminHandler) HandleListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, models.RoleListResponse{Roles: roles})
}

func (h *AdminHandler) HandleApplyRoles(c *gin.Context) {
	var req models.RoleBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	applied, err := h.roles.ApplyBatch(c.Request.Context(), middleware.CurrentIdentity(c).UserID, req.Changes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, models.RoleBatchResponse{Applied: applied})
}
