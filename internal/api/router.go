package api

import (
	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/api/handlers"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Deps carries everything the router wires together.
type Deps struct {
	Resolver    identity.Resolver
	Admins      middleware.AdminChecker
	RateLimiter *middleware.RateLimiter
	Logger      *logrus.Logger

	Rewrite  *handlers.RewriteHandler
	Feedback *handlers.FeedbackHandler
	Account  *handlers.AccountHandler
	Billing  *handlers.BillingHandler
	Voice    *handlers.VoiceHandler
	Admin    *handlers.AdminHandler
	Health   *handlers.HealthHandler
}

// NewRouter builds the gin engine. Every route lives under /functions/v1.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORS(),
		middleware.SecurityHeaders(),
		middleware.Identity(d.Resolver, d.Logger),
		middleware.RequestLogger(d.Logger),
	)
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	v1 := r.Group("/functions/v1")
	{
		v1.GET("/health", d.Health.HandleHealth)

		v1.POST("/rewrite", d.Rewrite.HandleRewrite)
		v1.POST("/feedback", d.Feedback.HandleFeedback)
		v1.GET("/feedback-stats", d.Feedback.HandleStats)

		authed := v1.Group("", middleware.RequireUser())
		authed.GET("/usage", d.Account.HandleUsage)
		authed.GET("/history", d.Account.HandleHistory)
		authed.DELETE("/history", d.Account.HandleClearHistory)
		authed.DELETE("/history/:id", d.Account.HandleDeleteRewrite)
		authed.GET("/recommend-course", d.Account.HandleRecommendCourse)
		authed.POST("/check-subscription", d.Billing.HandleCheckSubscription)
		authed.POST("/create-checkout", d.Billing.HandleCreateCheckout)
		authed.POST("/voice-token", d.Voice.HandleVoiceToken)

		admin := authed.Group("/admin", middleware.RequireAdmin(d.Admins, d.Logger))
		admin.GET("/roles", d.Admin.HandleListRoles)
		admin.POST("/roles/batch", d.Admin.HandleApplyRoles)
	}

	return r
}
