package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

const identityKey = "identity"

// AdminChecker reports whether a user holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Identity resolves the bearer token, if any, into the request context.
// It never rejects a request.
func Identity(resolver identity.Resolver, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := identity.ResolveOptional(c.Request.Context(), resolver, c.GetHeader("Authorization"), logger); id != nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller, or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *identity.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*identity.Identity)
	return id
}

// RequireUser rejects anonymous callers with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role with 403. It must run
// after RequireUser.
func RequireAdmin(admins AdminChecker, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}

		isAdmin, err := admins.IsAdmin(c.Request.Context(), id.UserID)
		if err != nil {
			logger.WithError(err).WithField("user_id", id.UserID).Error("Admin role lookup failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to verify role", err)
			return
		}
		if !isAdmin {
			utils.ErrorResponse(c, http.StatusForbidden, "Admin access required", nil)
			return
		}
		c.Next()
	}
}
