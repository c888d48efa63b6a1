package repositories

import (
	"context"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

type IdempotencyRepository interface {
	FindByKey(ctx context.Context, key string) (*entities.IdempotencyRecord, error)
	// Create fails with ErrDuplicate when the key is already claimed.
	Create(ctx context.Context, record *entities.IdempotencyRecord) (*entities.IdempotencyRecord, error)
	// Complete stores the response of a pending record.
	Complete(ctx context.Context, key, response string, statusCode int) error
	Delete(ctx context.Context, key string) error
}
