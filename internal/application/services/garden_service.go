package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

type GardenService struct {
	gardenRepo  repositories.GardenRepository
	plantRepo   repositories.PlantRepository
	likeRepo    repositories.LikeRepository
	cache       *nearbyCache
	plantsCache *nearbyCache
	events      interfaces.EventPublisher
	logger      *zap.Logger
}

func NewGardenService(
	gardenRepo repositories.GardenRepository,
	plantRepo repositories.PlantRepository,
	likeRepo repositories.LikeRepository,
	redisService *infrastructure.RedisService,
	events interfaces.EventPublisher,
	m *metrics.Metrics,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *GardenService {
	return &GardenService{
		gardenRepo: gardenRepo,
		plantRepo:  plantRepo,
		likeRepo:   likeRepo,
		cache: &nearbyCache{
			prefix: "nearby:gardens",
			redis:  redisService,
			ttl:    cacheTTL,
			metric: m,
			logger: logger,
		},
		// deleting a garden detaches plants, so cached plant lists go too
		plantsCache: &nearbyCache{prefix: "nearby:plants", redis: redisService, logger: logger},
		events:      events,
		logger:      logger,
	}
}

var _ interfaces.GardenService = (*GardenService)(nil)

func (s *GardenService) CreateGarden(ctx context.Context, createCommand *command.CreateGardenCommand) (*common.GardenResult, error) {
	if createCommand.Latitude == nil || createCommand.Longitude == nil {
		return nil, common.InvalidInput("latitude and longitude are required")
	}
	garden := entities.NewGarden(createCommand.OwnerId, createCommand.Name, *createCommand.Latitude, *createCommand.Longitude)
	garden.Description = strings.TrimSpace(createCommand.Description)
	garden.Address = strings.TrimSpace(createCommand.Address)
	garden.CoverURL = strings.TrimSpace(createCommand.CoverURL)
	if createCommand.IsPublic != nil {
		garden.IsPublic = *createCommand.IsPublic
	}
	if err := garden.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}

	created, err := s.gardenRepo.Create(ctx, garden)
	if err != nil {
		return nil, repoError(err, "garden")
	}
	s.cache.invalidate(ctx)
	s.events.Publish(ctx, messaging.SubjectGardenCreated, created)
	return &common.GardenResult{Garden: created}, nil
}

// GetGarden hides private gardens from everyone but the owner.
func (s *GardenService) GetGarden(ctx context.Context, userId, id uuid.UUID) (*common.GardenResult, error) {
	garden, err := s.gardenRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if garden == nil || !garden.VisibleTo(userId) {
		return nil, common.NotFound("garden not found")
	}
	results, err := s.decorate(ctx, userId, []*entities.Garden{garden})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (s *GardenService) Nearby(ctx context.Context, nearbyQuery query.NearbyQuery) ([]*common.GardenResult, error) {
	q, center, err := validateNearby(nearbyQuery)
	if err != nil {
		return nil, err
	}

	candidates, err := nearbyCandidates(ctx, s.cache, q, s.gardenRepo.Nearest)
	if err != nil {
		return nil, fmt.Errorf("nearby gardens: %w", err)
	}

	gardens, dists := withinRadius(candidates, center, q.RadiusKm, q.Limit, (*entities.Garden).Location, idOfGarden)
	results, err := s.decorate(ctx, q.UserId, gardens)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		r.DistanceKm = roundKm(dists[i])
	}
	return results, nil
}

func (s *GardenService) Mine(ctx context.Context, pageQuery query.PageQuery) (*common.PageResult[*common.GardenResult], error) {
	page := repositories.NewPage(pageQuery.Page, pageQuery.Size)
	gardens, total, err := s.gardenRepo.ListByOwner(ctx, pageQuery.UserId, page)
	if err != nil {
		return nil, err
	}
	results, err := s.decorate(ctx, pageQuery.UserId, gardens)
	if err != nil {
		return nil, err
	}
	return common.NewPageResult(results, total, page), nil
}

func (s *GardenService) Plants(ctx context.Context, gardenId uuid.UUID, pageQuery query.PageQuery) (*common.PageResult[*common.PlantResult], error) {
	if _, err := s.GetGarden(ctx, pageQuery.UserId, gardenId); err != nil {
		return nil, err
	}
	page := repositories.NewPage(pageQuery.Page, pageQuery.Size)
	plants, total, err := s.plantRepo.ListByGarden(ctx, gardenId, page)
	if err != nil {
		return nil, err
	}
	results, err := decoratePlants(ctx, s.likeRepo, pageQuery.UserId, plants)
	if err != nil {
		return nil, err
	}
	return common.NewPageResult(results, total, page), nil
}

func (s *GardenService) UpdateGarden(ctx context.Context, updateCommand *command.UpdateGardenCommand) (*common.GardenResult, error) {
	garden, err := s.gardenRepo.FindById(ctx, updateCommand.Id)
	if err != nil {
		return nil, err
	}
	if garden == nil || !garden.VisibleTo(updateCommand.ActorId) {
		return nil, common.NotFound("garden not found")
	}
	if !garden.IsOwnedBy(updateCommand.ActorId) {
		return nil, common.Forbidden("only the owner can edit this garden")
	}

	if updateCommand.Name != nil {
		garden.Name = strings.TrimSpace(*updateCommand.Name)
	}
	if updateCommand.Description != nil {
		garden.Description = strings.TrimSpace(*updateCommand.Description)
	}
	if updateCommand.Latitude != nil {
		garden.Latitude = *updateCommand.Latitude
	}
	if updateCommand.Longitude != nil {
		garden.Longitude = *updateCommand.Longitude
	}
	if updateCommand.Address != nil {
		garden.Address = strings.TrimSpace(*updateCommand.Address)
	}
	if updateCommand.CoverURL != nil {
		garden.CoverURL = strings.TrimSpace(*updateCommand.CoverURL)
	}
	if updateCommand.IsPublic != nil {
		garden.IsPublic = *updateCommand.IsPublic
	}
	if err := garden.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	garden.UpdatedAt = time.Now()

	updated, err := s.gardenRepo.Update(ctx, garden)
	if err != nil {
		return nil, repoError(err, "garden")
	}
	s.cache.invalidate(ctx)

	results, err := s.decorate(ctx, updateCommand.ActorId, []*entities.Garden{updated})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (s *GardenService) DeleteGarden(ctx context.Context, actor command.Actor, id uuid.UUID) error {
	garden, err := s.gardenRepo.FindById(ctx, id)
	if err != nil {
		return err
	}
	if garden == nil {
		return common.NotFound("garden not found")
	}
	if !garden.IsOwnedBy(actor.UserId) && !actor.IsAdmin {
		return common.Forbidden("only the owner can delete this garden")
	}
	if err := s.gardenRepo.Delete(ctx, id); err != nil {
		return repoError(err, "garden")
	}
	s.cache.invalidate(ctx)
	s.plantsCache.invalidate(ctx)
	return nil
}

func (s *GardenService) Like(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error) {
	if _, err := s.GetGarden(ctx, userId, id); err != nil {
		return nil, err
	}
	state, err := s.likeRepo.Like(ctx, userId, entities.LikeTargetGarden, id)
	if err != nil {
		return nil, repoError(err, "garden")
	}
	return &common.LikeResult{Liked: state.Liked, LikeCount: state.LikeCount}, nil
}

func (s *GardenService) Unlike(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error) {
	if _, err := s.GetGarden(ctx, userId, id); err != nil {
		return nil, err
	}
	state, err := s.likeRepo.Unlike(ctx, userId, entities.LikeTargetGarden, id)
	if err != nil {
		return nil, repoError(err, "garden")
	}
	return &common.LikeResult{Liked: state.Liked, LikeCount: state.LikeCount}, nil
}

func (s *GardenService) decorate(ctx context.Context, userId uuid.UUID, gardens []*entities.Garden) ([]*common.GardenResult, error) {
	ids := make([]uuid.UUID, 0, len(gardens))
	for _, g := range gardens {
		ids = append(ids, g.Id)
	}
	liked, err := s.likeRepo.LikedAmong(ctx, userId, entities.LikeTargetGarden, ids)
	if err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}
	out := make([]*common.GardenResult, 0, len(gardens))
	for _, g := range gardens {
		out = append(out, &common.GardenResult{Garden: g, Liked: liked[g.Id]})
	}
	return out, nil
}

func idOfGarden(g *entities.Garden) uuid.UUID { return g.Id }
