package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/internal/services"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

type TokenMinter interface {
	MintToken(ctx context.Context) (string, error)
}

type VoiceHandler struct {
	entitlements services.Entitlements
	minter       TokenMinter
	logger       *logrus.Logger
}

func NewVoiceHandler(entitlements services.Entitlements, minter TokenMinter, logger *logrus.Logger) *VoiceHandler {
	return &VoiceHandler{entitlements: entitlements, minter: minter, logger: logger}
}

// HandleVoiceToken serves POST /voice-token. Pro users only.
func (h *VoiceHandler) HandleVoiceToken(c *gin.Context) {
	id := middleware.CurrentIdentity(c)

	pro, err := h.entitlements.IsPro(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", id.UserID).Error("Subscription check failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to check subscription", err)
		return
	}
	if !pro {
		utils.ErrorResponse(c, http.StatusForbidden, "Voice practice requires an active subscription", nil)
		return
	}

	token, err := h.minter.MintToken(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to start voice session", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, models.VoiceTokenResponse{Token: token})
}
