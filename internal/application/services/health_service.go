package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
)

const healthTimeout = 2 * time.Second

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService checks the database plus the optional Redis and NATS links.
// A nil Redis or NATS dependency reports as disabled.
type HealthService struct {
	db     Pinger
	redis  Pinger
	nats   func() bool
	logger *zap.Logger
}

func NewHealthService(db, redis Pinger, natsConnected func() bool, logger *zap.Logger) *HealthService {
	return &HealthService{db: db, redis: redis, nats: natsConnected, logger: logger}
}

var _ interfaces.HealthChecker = (*HealthService)(nil)

func (s *HealthService) Check(ctx context.Context) *common.HealthResult {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	result := &common.HealthResult{
		DB:    s.ping(ctx, "db", s.db),
		Redis: s.ping(ctx, "redis", s.redis),
		NATS:  common.StatusDisabled,
	}
	if s.nats != nil {
		result.NATS = common.StatusDown
		if s.nats() {
			result.NATS = common.StatusUp
		}
	}
	result.Status = "ok"
	if !result.Healthy() {
		result.Status = "unavailable"
	}
	return result
}

func (s *HealthService) ping(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return common.StatusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		s.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
		return common.StatusDown
	}
	return common.StatusUp
}
