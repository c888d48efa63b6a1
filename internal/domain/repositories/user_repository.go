package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByCredentials(ctx context.Context, login string) (*entities.User, error)
	Update(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context, keyword string, page Page) ([]*entities.User, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
