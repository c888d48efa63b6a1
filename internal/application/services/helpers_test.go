package services

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/ai"
	"github.com/greenmap/plant-service/internal/infrastructure/db/gormstore"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gormstore.Open(gormstore.Options{
		Driver:   gormstore.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "services.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))
	t.Cleanup(func() { _ = gormstore.Close(db) })
	return db
}

// disabledRedis behaves like a deployment without Redis.
func disabledRedis() *infrastructure.RedisService {
	return infrastructure.NewRedisServiceWithClient(nil, zap.NewNop())
}

// newMiniRedis returns an in-memory Redis and a service connected to it.
func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *infrastructure.RedisService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, infrastructure.NewRedisServiceWithClient(client, zap.NewNop())
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	vu, err := entities.NewValidatedUser(entities.NewUser(username, "", "secret123"))
	require.NoError(t, err)
	u, err := gormstore.NewUserRepository(db).Create(context.Background(), vu)
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }

// pngBase64 is a PNG signature followed by filler; enough for content sniffing.
var pngBase64 = base64.StdEncoding.EncodeToString(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...))

type publishedEvent struct {
	Subject string
	Data    any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Data: data})
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) Enabled() bool { return true }

func (m *fakeMailer) SendWelcome(_ context.Context, recipientEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recipientEmail)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []ai.Request
	err      error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(_ context.Context, req ai.Request) (*ai.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &ai.Completion{Text: "Looks like a Monstera deliciosa.", Model: "fake-1"}, nil
}

func (p *fakeProvider) last() ai.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func newPlantService(t *testing.T, db *gorm.DB, events *fakePublisher) *PlantService {
	t.Helper()
	return newPlantServiceWith(t, db, events, gormstore.NewPlantRepository(db), disabledRedis())
}

func newPlantServiceWith(t *testing.T, db *gorm.DB, events *fakePublisher, plantRepo repositories.PlantRepository, redisService *infrastructure.RedisService) *PlantService {
	t.Helper()
	images, err := infrastructure.NewImageStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return NewPlantService(
		plantRepo,
		gormstore.NewGardenRepository(db),
		gormstore.NewLikeRepository(db),
		gormstore.NewIdempotencyRepository(db),
		redisService,
		images,
		events,
		nil,
		PlantServiceOptions{NearbyCacheTTL: 30 * time.Second, ImageMaxBytes: 1 << 20},
		zap.NewNop(),
	)
}

func newGardenService(db *gorm.DB, events *fakePublisher) *GardenService {
	return newGardenServiceWith(db, events, disabledRedis())
}

func newGardenServiceWith(db *gorm.DB, events *fakePublisher, redisService *infrastructure.RedisService) *GardenService {
	return NewGardenService(
		gormstore.NewGardenRepository(db),
		gormstore.NewPlantRepository(db),
		gormstore.NewLikeRepository(db),
		redisService,
		events,
		nil,
		30*time.Second,
		zap.NewNop(),
	)
}
