package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/reframeapp/reframe/internal/aigateway"
	"github.com/reframeapp/reframe/internal/api"
	"github.com/reframeapp/reframe/internal/api/handlers"
	"github.com/reframeapp/reframe/internal/billing"
	"github.com/reframeapp/reframe/internal/config"
	"github.com/reframeapp/reframe/internal/database"
	"github.com/reframeapp/reframe/internal/health"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/reframeapp/reframe/internal/migration"
	"github.com/reframeapp/reframe/internal/repository"
	"github.com/reframeapp/reframe/internal/services"
	"github.com/reframeapp/reframe/internal/voice"
	"github.com/reframeapp/reframe/pkg/utils"
	_ "go.uber.org/automaxprocs"
)

var (
	migrate        = flag.Bool("migrate", false, "Run migrations before serving")
	migrationsDir  = flag.String("migrations", "migrations", "Directory holding SQL migrations")
	healthInterval = flag.Duration("health-interval", 30*time.Second, "Interval between background health checks")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if err := cfg.ValidateVoice(); err != nil {
		logger.WithError(err).Warn("Voice practice is not configured")
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Log.Level,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if *migrate {
		if err := migration.NewRunner(dbManager, logger).RunMigrations(*migrationsDir); err != nil {
			logger.WithError(err).Fatal("Migrations failed")
		}
	}

	repos := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	gateway := aigateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Model, cfg.Gateway.Timeout, logger)
	resolver := identity.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience)

	stripeGateway := billing.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.APIURL, logger)
	entitlements := billing.NewEntitlementChecker(stripeGateway, logger)
	checkout := billing.NewCheckout(stripeGateway, cfg.Stripe.PriceID, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	voiceClient := voice.NewClient(cfg.Voice.BaseURL, cfg.Voice.APIKey, cfg.Voice.AgentID, logger)

	quota := services.NewQuotaCounter(repos.Rewrite, cfg.Quota.DailyLimit, logger)
	rewriteService := services.NewRewriteService(gateway, entitlements, quota, repos.Rewrite, logger)
	feedbackService := services.NewFeedbackService(repos.Feedback, cache, cfg.Cache.StatsTTL, logger)
	accountService := services.NewAccountService(quota, entitlements, repos.Rewrite, logger)
	courseService := services.NewCourseService(repos.Rewrite, logger)
	roleService := services.NewRoleService(repos.UserRole, logger)

	healthChecker := health.NewHealthChecker(dbManager, gateway, cache, 10*time.Second, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute)
	defer rateLimiter.Stop()

	router := api.NewRouter(api.Deps{
		Resolver:    resolver,
		Admins:      roleService,
		RateLimiter: rateLimiter,
		Logger:      logger,
		Rewrite:     handlers.NewRewriteHandler(rewriteService, logger),
		Feedback:    handlers.NewFeedbackHandler(feedbackService, logger),
		Account:     handlers.NewAccountHandler(accountService, courseService, logger),
		Billing:     handlers.NewBillingHandler(entitlements, checkout, logger),
		Voice:       handlers.NewVoiceHandler(entitlements, voiceClient, logger),
		Admin:       handlers.NewAdminHandler(roleService, logger),
		Health:      handlers.NewHealthHandler(healthChecker),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go healthChecker.PeriodicHealthCheck(ctx, *healthInterval)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
