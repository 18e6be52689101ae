package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/reframeapp/reframe/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	dbErr, redisErr error
	pings           int
}

func (s *stubStorage) PingDatabase(ctx context.Context) error {
	s.pings++
	return s.dbErr
}

func (s *stubStorage) PingRedis(ctx context.Context) error { return s.redisErr }

type stubGateway struct{ err error }

func (s stubGateway) Ping(ctx context.Context) error { return s.err }

func newCache(t *testing.T) (*database.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return database.NewCache(client, logrus.New()), mr
}

func TestCheckAll_Healthy(t *testing.T) {
	cache, _ := newCache(t)
	checker := NewHealthChecker(&stubStorage{}, stubGateway{}, cache, time.Minute, logrus.New())

	health := checker.CheckAll(context.Background())
	assert.True(t, health.Healthy())
	require.Len(t, health.Services, 3)
	assert.Equal(t, "postgresql", health.Services[0].Name)
	assert.Equal(t, "redis", health.Services[1].Name)
	assert.Equal(t, "ai_gateway", health.Services[2].Name)
}

func TestCheckAll_Unhealthy(t *testing.T) {
	cache, _ := newCache(t)
	checker := NewHealthChecker(&stubStorage{}, stubGateway{err: errors.New("unreachable")}, cache, time.Minute, logrus.New())

	health := checker.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, health.Status)
	assert.Equal(t, "unreachable", health.Services[2].Error)
}

func TestCheck_UsesCachedSnapshot(t *testing.T) {
	cache, mr := newCache(t)
	storage := &stubStorage{}
	checker := NewHealthChecker(storage, stubGateway{}, cache, time.Minute, logrus.New())
	ctx := context.Background()

	checker.Check(ctx)
	checker.Check(ctx)
	assert.Equal(t, 1, storage.pings)

	mr.FastForward(2 * time.Minute)
	checker.Check(ctx)
	assert.Equal(t, 2, storage.pings)
}
