package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/aigateway"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/internal/services"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

// respondError maps a service error onto its HTTP status and body.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var quotaErr *services.QuotaExceededError
	var inputErr *services.InputError

	switch {
	case errors.As(err, &quotaErr):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.QuotaExceededResponse{
			Error:   "daily_limit_reached",
			Message: fmt.Sprintf("You've used all %d free rewrites for today. Upgrade to Pro for unlimited rewrites.", quotaErr.Limit),
			Limit:   quotaErr.Limit,
			Used:    quotaErr.Used,
		})
	case errors.As(err, &inputErr):
		utils.ErrorResponse(c, http.StatusBadRequest, inputErr.Message, err)
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, aigateway.ErrRateLimited):
		utils.ErrorResponse(c, http.StatusTooManyRequests, "Rate limits exceeded, please try again later.", err)
	case errors.Is(err, aigateway.ErrPaymentRequired):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "Payment required, please add funds to your AI workspace.", err)
	case errors.Is(err, services.ErrMalformedModelOutput):
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to parse AI response", err)
	case services.IsUpstreamError(err):
		utils.ErrorResponse(c, http.StatusInternalServerError, "AI gateway error", err)
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// bindJSON decodes the body, answering 400 on failure. A wrongly typed field
// is named in the message.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			utils.ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("%s must be a %s", typeErr.Field, jsonTypeName(typeErr.Type.Kind())), err)
			return false
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	return true
}

func jsonTypeName(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "number"
	}
}
