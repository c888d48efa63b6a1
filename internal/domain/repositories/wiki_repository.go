package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

type WikiRepository interface {
	// Upsert inserts or updates entries keyed by scientific name.
	Upsert(ctx context.Context, entries []*entities.WikiEntry) (int, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.WikiEntry, error)
	Search(ctx context.Context, filter entities.WikiFilter, page Page) ([]*entities.WikiEntry, int64, error)
}
