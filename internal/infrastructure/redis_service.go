package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

// ErrCacheMiss is returned by the getters when the key is absent or Redis is disabled.
var ErrCacheMiss = redis.Nil

type RedisOptions struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisService wraps the token store and caches. A nil client means Redis is
// disabled; writes become no-ops and reads miss.
type RedisService struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisService(ctx context.Context, opts RedisOptions, logger *zap.Logger) *RedisService {
	if opts.URL == "" && opts.Host == "" {
		logger.Info("Redis not configured, caching and token revocation disabled")
		return &RedisService{logger: logger}
	}

	var options *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			logger.Warn("Invalid REDIS_URL, Redis disabled", zap.Error(err))
			return &RedisService{logger: logger}
		}
		options = parsed
	} else {
		options = &redis.Options{
			Addr:     net.JoinHostPort(opts.Host, opts.Port),
			Password: opts.Password,
			DB:       opts.DB,
		}
	}
	options.PoolSize = 10
	options.MinIdleConns = 5
	options.DialTimeout = 5 * time.Second
	options.ReadTimeout = 3 * time.Second
	options.WriteTimeout = 3 * time.Second

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis connection failed, Redis disabled", zap.String("addr", options.Addr), zap.Error(err))
		_ = client.Close()
		return &RedisService{logger: logger}
	}

	logger.Info("Connected to Redis", zap.String("addr", options.Addr))
	return &RedisService{client: client, logger: logger}
}

// NewRedisServiceWithClient wraps an existing client; nil disables Redis.
func NewRedisServiceWithClient(client *redis.Client, logger *zap.Logger) *RedisService {
	return &RedisService{client: client, logger: logger}
}

func (r *RedisService) Enabled() bool {
	return r != nil && r.client != nil
}

func (r *RedisService) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return fmt.Errorf("redis disabled")
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisService) SetToken(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Set(ctx, "token:"+jti, userID, ttl).Err()
}

func (r *RedisService) GetToken(ctx context.Context, jti string) (string, error) {
	if !r.Enabled() {
		return "", ErrCacheMiss
	}
	return r.client.Get(ctx, "token:"+jti).Result()
}

func (r *RedisService) RevokeToken(ctx context.Context, jti string) error {
	return r.DeleteKey(ctx, "token:"+jti)
}

func (r *RedisService) SetProfile(ctx context.Context, userID string, user *entities.User, ttl time.Duration) error {
	return r.SetJSON(ctx, "profile:"+userID, user, ttl)
}

func (r *RedisService) GetProfile(ctx context.Context, userID string) (*entities.User, error) {
	var user entities.User
	if err := r.GetJSON(ctx, "profile:"+userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RedisService) DeleteProfile(ctx context.Context, userID string) error {
	return r.DeleteKey(ctx, "profile:"+userID)
}

func (r *RedisService) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisService) GetJSON(ctx context.Context, key string, dst any) error {
	if !r.Enabled() {
		return ErrCacheMiss
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// DeletePattern removes every key matching pattern, walking the keyspace with SCAN.
func (r *RedisService) DeletePattern(ctx context.Context, pattern string) error {
	if !r.Enabled() {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *RedisService) DeleteKey(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

func (r *RedisService) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
