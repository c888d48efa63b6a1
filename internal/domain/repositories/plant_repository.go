package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/geo"
)

type PlantRepository interface {
	Create(ctx context.Context, plant *entities.Plant) (*entities.Plant, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.Plant, error)
	Update(ctx context.Context, plant *entities.Plant) (*entities.Plant, error)
	// Delete removes the plant, its likes and adjusts the garden plant count.
	Delete(ctx context.Context, id uuid.UUID) error
	// InBox returns plants inside box, at most limit rows.
	InBox(ctx context.Context, box geo.Box, limit int) ([]*entities.Plant, error)
	// Nearest returns plants inside box closest to center first, at most limit rows.
	Nearest(ctx context.Context, box geo.Box, center geo.Point, limit int) ([]*entities.Plant, error)
	ListByOwner(ctx context.Context, ownerId uuid.UUID, page Page) ([]*entities.Plant, int64, error)
	ListByGarden(ctx context.Context, gardenId uuid.UUID, page Page) ([]*entities.Plant, int64, error)
	ListLikedBy(ctx context.Context, userId uuid.UUID, page Page) ([]*entities.Plant, int64, error)
}

type GardenRepository interface {
	Create(ctx context.Context, garden *entities.Garden) (*entities.Garden, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.Garden, error)
	Update(ctx context.Context, garden *entities.Garden) (*entities.Garden, error)
	// Delete removes the garden and its likes and detaches its plants.
	Delete(ctx context.Context, id uuid.UUID) error
	// InBox returns public gardens inside box.
	InBox(ctx context.Context, box geo.Box, limit int) ([]*entities.Garden, error)
	Nearest(ctx context.Context, box geo.Box, center geo.Point, limit int) ([]*entities.Garden, error)
	ListByOwner(ctx context.Context, ownerId uuid.UUID, page Page) ([]*entities.Garden, int64, error)
}

type LikeRepository interface {
	// Like is idempotent; the like row and counter change commit together.
	Like(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, targetId uuid.UUID) (entities.LikeState, error)
	Unlike(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, targetId uuid.UUID) (entities.LikeState, error)
	// LikedAmong returns the subset of ids the user has liked.
	LikedAmong(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}
