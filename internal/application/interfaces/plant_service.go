package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/geo"
)

type PlantService interface {
	AddPlant(ctx context.Context, addCommand *command.AddPlantCommand) (*common.PlantResult, error)
	GetPlant(ctx context.Context, userId, id uuid.UUID, from *geo.Point) (*common.PlantResult, error)
	Nearby(ctx context.Context, nearbyQuery query.NearbyQuery) ([]*common.PlantResult, error)
	Viewport(ctx context.Context, viewportQuery query.ViewportQuery) ([]*common.PlantResult, error)
	Mine(ctx context.Context, pageQuery query.PageQuery) (*common.PageResult[*common.PlantResult], error)
	Liked(ctx context.Context, pageQuery query.PageQuery) (*common.PageResult[*common.PlantResult], error)
	UpdatePlant(ctx context.Context, updateCommand *command.UpdatePlantCommand) (*common.PlantResult, error)
	DeletePlant(ctx context.Context, actor command.Actor, id uuid.UUID) error
	Like(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error)
	Unlike(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error)
}

type GardenService interface {
	CreateGarden(ctx context.Context, createCommand *command.CreateGardenCommand) (*common.GardenResult, error)
	GetGarden(ctx context.Context, userId, id uuid.UUID) (*common.GardenResult, error)
	Nearby(ctx context.Context, nearbyQuery query.NearbyQuery) ([]*common.GardenResult, error)
	Mine(ctx context.Context, pageQuery query.PageQuery) (*common.PageResult[*common.GardenResult], error)
	Plants(ctx context.Context, gardenId uuid.UUID, pageQuery query.PageQuery) (*common.PageResult[*common.PlantResult], error)
	UpdateGarden(ctx context.Context, updateCommand *command.UpdateGardenCommand) (*common.GardenResult, error)
	DeleteGarden(ctx context.Context, actor command.Actor, id uuid.UUID) error
	Like(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error)
	Unlike(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error)
}

type MapService interface {
	Nearby(ctx context.Context, nearbyQuery query.NearbyQuery) (*common.MapResult, error)
}
