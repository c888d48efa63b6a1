package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
	"github.com/greenmap/plant-service/internal/infrastructure"
)

const idempotencyCacheTTL = 24 * time.Hour

// idempotencyStore replays stored responses for repeated Idempotency-Key
// requests. Keys are scoped so different callers never share a record.
type idempotencyStore struct {
	repo   repositories.IdempotencyRepository
	redis  *infrastructure.RedisService
	logger *zap.Logger
}

func scopedKey(scope, key string) string {
	return scope + ":" + key
}

// begin claims key for one request by inserting a pending record. It reports
// true with dst filled when a finished response already exists, and a
// conflict while another request still holds the claim. A claimed key must
// be finished with complete or given back with release.
func (s *idempotencyStore) begin(ctx context.Context, scope, key string, request, dst any) (bool, error) {
	if key == "" || s.repo == nil {
		return false, nil
	}
	full := scopedKey(scope, key)

	var cached string
	if err := s.redis.GetJSON(ctx, "idem:"+full, &cached); err == nil {
		if err := json.Unmarshal([]byte(cached), dst); err == nil {
			return true, nil
		}
	} else if !errors.Is(err, infrastructure.ErrCacheMiss) {
		s.logger.Warn("Idempotency cache read failed", zap.Error(err))
	}

	requestJSON, _ := json.Marshal(request)
	_, err := s.repo.Create(ctx, entities.NewIdempotencyRecord(full, string(requestJSON)))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}

	existingRecord, err := s.repo.FindByKey(ctx, full)
	if err != nil {
		return false, fmt.Errorf("find idempotency record: %w", err)
	}
	if existingRecord == nil || existingRecord.Pending() {
		return false, common.Conflict("a request with this Idempotency-Key is still in progress")
	}
	if err := json.Unmarshal([]byte(existingRecord.Response), dst); err != nil {
		return false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return true, nil
}

// complete saves the response for a claimed key. Failures are logged, never returned.
func (s *idempotencyStore) complete(ctx context.Context, scope, key string, response any) {
	if key == "" || s.repo == nil {
		return
	}
	full := scopedKey(scope, key)

	responseJSON, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn("Failed to encode idempotent response", zap.Error(err))
		s.release(ctx, scope, key)
		return
	}
	if err := s.repo.Complete(ctx, full, string(responseJSON), 200); err != nil {
		s.logger.Warn("Failed to store idempotency record", zap.String("key", full), zap.Error(err))
	}
	if err := s.redis.SetJSON(ctx, "idem:"+full, string(responseJSON), idempotencyCacheTTL); err != nil {
		s.logger.Warn("Failed to cache idempotency record", zap.Error(err))
	}
}

// release drops a pending claim so the client can retry after a failure.
func (s *idempotencyStore) release(ctx context.Context, scope, key string) {
	if key == "" || s.repo == nil {
		return
	}
	full := scopedKey(scope, key)
	if err := s.repo.Delete(context.WithoutCancel(ctx), full); err != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("key", full), zap.Error(err))
	}
}
