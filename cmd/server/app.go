package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenmap/plant-service/internal/application/services"
	"github.com/greenmap/plant-service/internal/config"
	"github.com/greenmap/plant-service/internal/delivery/handler"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/ai"
	"github.com/greenmap/plant-service/internal/infrastructure/db/gormstore"
	"github.com/greenmap/plant-service/internal/infrastructure/logging"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

// app holds every long-lived dependency built from the configuration.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	redis   *infrastructure.RedisService
	nc      *nats.Conn
	limiter *infrastructure.RateLimiter
	metrics *metrics.Metrics
	images  *infrastructure.ImageStore

	users   *services.UserService
	plants  *services.PlantService
	gardens *services.GardenService
	wiki    *services.WikiService
	surveys *services.SurveyService
	ai      *services.AIService
	health  *services.HealthService
}

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == gormstore.DriverSQLite {
		dsn = cfg.DBPath
	}
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}
	return gormstore.Open(gormstore.Options{
		Driver:          cfg.DBDriver,
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		LogLevel:        level,
	})
}

func newRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *infrastructure.RedisService {
	return infrastructure.NewRedisService(ctx, infrastructure.RedisOptions{
		URL:      cfg.RedisURL,
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := gormstore.Migrate(db); err != nil {
			_ = gormstore.Close(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	a := &app{cfg: cfg, logger: log, db: db, metrics: metrics.Default()}

	a.redis = newRedis(ctx, cfg, log)

	if cfg.NATSURL != "" {
		a.nc, err = messaging.Connect(cfg.NATSURL, "plant-service", log)
		if err != nil {
			a.close()
			return nil, err
		}
	} else {
		log.Info("NATS not configured, events and responders disabled")
	}
	events := messaging.NewPublisher(a.nc, log, a.metrics)

	mailer, err := infrastructure.NewMailService(infrastructure.MailOptions{
		Provider: cfg.MailProvider,
		APIKey:   cfg.MailAPIKey,
		Sender:   cfg.MailSender,
	}, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.images, err = infrastructure.NewImageStore(cfg.ImageDir, cfg.PublicBaseURL)
	if err != nil {
		a.close()
		return nil, err
	}

	provider, err := ai.New(ai.Options{
		Provider:   cfg.AIProvider,
		APIKey:     cfg.AIAPIKey,
		Model:      cfg.AIModel,
		BaseURL:    cfg.AIBaseURL,
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
		RateLimit:  cfg.AIRateLimit,
	}, log, a.metrics)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		log.Info("AI assistant not configured")
	case err != nil:
		a.close()
		return nil, err
	}

	userRepo := gormstore.NewUserRepository(db)
	plantRepo := gormstore.NewPlantRepository(db)
	gardenRepo := gormstore.NewGardenRepository(db)
	likeRepo := gormstore.NewLikeRepository(db)
	idempotencyRepo := gormstore.NewIdempotencyRepository(db)

	a.limiter = infrastructure.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxRequests)
	a.users = services.NewUserService(
		userRepo,
		idempotencyRepo,
		a.redis,
		infrastructure.NewJWTService(cfg.JWTSecret, cfg.JWTTTL),
		mailer,
		a.limiter,
		events,
		a.metrics,
		log,
	)
	a.plants = services.NewPlantService(plantRepo, gardenRepo, likeRepo, idempotencyRepo, a.redis, a.images, events, a.metrics,
		services.PlantServiceOptions{NearbyCacheTTL: cfg.NearbyCacheTTL, ImageMaxBytes: cfg.ImageMaxBytes}, log)
	a.gardens = services.NewGardenService(gardenRepo, plantRepo, likeRepo, a.redis, events, a.metrics, cfg.NearbyCacheTTL, log)
	a.wiki = services.NewWikiService(gormstore.NewWikiRepository(db), log)
	a.surveys = services.NewSurveyService(gormstore.NewSurveyRepository(db), events, log)
	a.ai = services.NewAIService(provider, cfg.ImageMaxBytes, log)

	// A disabled dependency must reach the health service as a nil interface.
	var redisPinger services.Pinger
	if a.redis.Enabled() {
		redisPinger = a.redis
	}
	var natsConnected func() bool
	if a.nc != nil {
		natsConnected = a.nc.IsConnected
	}
	a.health = services.NewHealthService(gormstore.NewPinger(db), redisPinger, natsConnected, log)
	return a, nil
}

func (a *app) services() handler.Services {
	return handler.Services{
		Users:   a.users,
		Plants:  a.plants,
		Gardens: a.gardens,
		Map:     services.NewMapService(a.plants, a.gardens),
		Wiki:    a.wiki,
		Surveys: a.surveys,
		AI:      a.ai,
		Health:  a.health,
	}
}

func (a *app) close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	messaging.Close(a.nc, a.logger)
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if err := gormstore.Close(a.db); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}
}
