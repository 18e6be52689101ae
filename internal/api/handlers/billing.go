package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/billing"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

type SubscriptionChecker interface {
	Status(ctx context.Context, id *identity.Identity) (models.SubscriptionStatus, error)
}

type CheckoutCreator interface {
	Create(ctx context.Context, id *identity.Identity, origin string) (string, error)
}

type BillingHandler struct {
	subscriptions SubscriptionChecker
	checkout      CheckoutCreator
	logger        *logrus.Logger
}

func NewBillingHandler(subscriptions SubscriptionChecker, checkout CheckoutCreator, logger *logrus.Logger) *BillingHandler {
	return &BillingHandler{subscriptions: subscriptions, checkout: checkout, logger: logger}
}

// HandleCheckSubscription serves POST /check-subscription
func (h *BillingHandler) HandleCheckSubscription(c *gin.Context) {
	id := middleware.CurrentIdentity(c)

	status, err := h.subscriptions.Status(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", id.UserID).Error("Subscription check failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to check subscription", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, status)
}

// HandleCreateCheckout serves POST /create-checkout
func (h *BillingHandler) HandleCreateCheckout(c *gin.Context) {
	id := middleware.CurrentIdentity(c)

	url, err := h.checkout.Create(c.Request.Context(), id, c.GetHeader("Origin"))
	if err != nil {
		if errors.Is(err, billing.ErrMissingEmail) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Account has no email address", err)
			return
		}
		h.logger.WithError(err).WithField("user_id", id.UserID).Error("Checkout creation failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to create checkout session", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, models.CheckoutResponse{URL: url})
}
