package health

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// StoragePinger is implemented by database.Manager.
type StoragePinger interface {
	PingDatabase(ctx context.Context) error
	PingRedis(ctx context.Context) error
}

// GatewayPinger is implemented by aigateway.Client.
type GatewayPinger interface {
	Ping(ctx context.Context) error
}

// SnapshotCache is implemented by database.Cache.
type SnapshotCache interface {
	CacheSystemHealth(ctx context.Context, health interface{}, expiration time.Duration) error
	GetCachedSystemHealth(ctx context.Context, result interface{}) error
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	storage StoragePinger
	gateway GatewayPinger
	cache   SnapshotCache
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewHealthChecker(storage StoragePinger, gateway GatewayPinger, cache SnapshotCache, ttl time.Duration, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		storage: storage,
		gateway: gateway,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (o OverallHealth) Healthy() bool {
	return o.Status == StatusHealthy
}

func (h *HealthChecker) check(ctx context.Context, name string, ping func(context.Context) error) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckPostgreSQL checks PostgreSQL database health
func (h *HealthChecker) CheckPostgreSQL(ctx context.Context) ServiceHealth {
	return h.check(ctx, "postgresql", h.storage.PingDatabase)
}

// CheckRedis checks Redis cache health
func (h *HealthChecker) CheckRedis(ctx context.Context) ServiceHealth {
	return h.check(ctx, "redis", h.storage.PingRedis)
}

// CheckGateway checks that the language model gateway answers
func (h *HealthChecker) CheckGateway(ctx context.Context) ServiceHealth {
	return h.check(ctx, "ai_gateway", h.gateway.Ping)
}

// CheckAll performs health checks on all services and caches the result
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(ctx),
		h.CheckRedis(ctx),
		h.CheckGateway(ctx),
	}

	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
	}

	health := OverallHealth{
		Status:   overallStatus,
		Services: services,
		Uptime:   getUptime(),
	}

	if h.cache != nil {
		if err := h.cache.CacheSystemHealth(ctx, health, h.ttl); err != nil {
			h.logger.WithError(err).Warn("Failed to cache health status")
		}
	}

	return health
}

// Check returns the cached snapshot when one is fresh, otherwise runs all
// checks.
func (h *HealthChecker) Check(ctx context.Context) OverallHealth {
	if cached, err := h.CheckCached(ctx); err == nil {
		return *cached
	}
	return h.CheckAll(ctx)
}

// CheckCached returns cached health status if available
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	if h.cache == nil {
		return nil, errNoCache
	}

	var health OverallHealth
	if err := h.cache.GetCachedSystemHealth(ctx, &health); err != nil {
		return nil, err
	}
	health.Uptime = getUptime()
	return &health, nil
}

var (
	startTime  = time.Now()
	errNoCache = errors.New("health cache not configured")
)

func getUptime() string {
	return time.Since(startTime).Round(time.Second).String()
}

// PeriodicHealthCheck runs health checks periodically
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)
			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
