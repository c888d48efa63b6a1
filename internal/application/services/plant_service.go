package services

import (
	"context"
	"errors"
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
	"github.com/greenmap/plant-service/internal/domain/geo"
	"github.com/greenmap/plant-service/internal/domain/repositories"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

type PlantServiceOptions struct {
	NearbyCacheTTL time.Duration
	ImageMaxBytes  int
}

type PlantService struct {
	plantRepo   repositories.PlantRepository
	gardenRepo  repositories.GardenRepository
	likeRepo    repositories.LikeRepository
	idempotency *idempotencyStore
	images      *infrastructure.ImageStore
	cache       *nearbyCache
	events      interfaces.EventPublisher
	opts        PlantServiceOptions
	logger      *zap.Logger
}

func NewPlantService(
	plantRepo repositories.PlantRepository,
	gardenRepo repositories.GardenRepository,
	likeRepo repositories.LikeRepository,
	idempotencyRepo repositories.IdempotencyRepository,
	redisService *infrastructure.RedisService,
	images *infrastructure.ImageStore,
	events interfaces.EventPublisher,
	m *metrics.Metrics,
	opts PlantServiceOptions,
	logger *zap.Logger,
) *PlantService {
	return &PlantService{
		plantRepo:   plantRepo,
		gardenRepo:  gardenRepo,
		likeRepo:    likeRepo,
		idempotency: &idempotencyStore{repo: idempotencyRepo, redis: redisService, logger: logger},
		images:      images,
		cache: &nearbyCache{
			prefix: "nearby:plants",
			redis:  redisService,
			ttl:    opts.NearbyCacheTTL,
			metric: m,
			logger: logger,
		},
		events: events,
		opts:   opts,
		logger: logger,
	}
}

var _ interfaces.PlantService = (*PlantService)(nil)

func (s *PlantService) AddPlant(ctx context.Context, addCommand *command.AddPlantCommand) (*common.PlantResult, error) {
	scope := addCommand.OwnerId.String()
	var replay common.PlantResult
	found, err := s.idempotency.begin(ctx, scope, addCommand.IdempotencyKey, addCommand, &replay)
	if err != nil {
		return nil, err
	}
	if found {
		return &replay, nil
	}

	result, err := s.addPlant(ctx, addCommand)
	if err != nil {
		s.idempotency.release(ctx, scope, addCommand.IdempotencyKey)
		return nil, err
	}
	s.idempotency.complete(ctx, scope, addCommand.IdempotencyKey, result)
	s.events.Publish(ctx, messaging.SubjectPlantAdded, result.Plant)
	return result, nil
}

func (s *PlantService) addPlant(ctx context.Context, addCommand *command.AddPlantCommand) (*common.PlantResult, error) {
	if addCommand.Latitude == nil || addCommand.Longitude == nil {
		return nil, common.InvalidInput("latitude and longitude are required")
	}
	plant := entities.NewPlant(addCommand.OwnerId, addCommand.Name, *addCommand.Latitude, *addCommand.Longitude)
	plant.Species = strings.TrimSpace(addCommand.Species)
	plant.Description = strings.TrimSpace(addCommand.Description)
	plant.Address = strings.TrimSpace(addCommand.Address)
	plant.ImageURL = strings.TrimSpace(addCommand.ImageURL)
	plant.SetTags(addCommand.Tags)
	if err := plant.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}

	if addCommand.GardenId != nil {
		if err := s.checkGardenOwner(ctx, *addCommand.GardenId, addCommand.OwnerId); err != nil {
			return nil, err
		}
		plant.GardenId = addCommand.GardenId
	}

	var uploaded string
	if addCommand.ImageBase64 != "" {
		url, err := s.saveImage(ctx, addCommand.ImageBase64)
		if err != nil {
			return nil, err
		}
		plant.ImageURL = url
		uploaded = url
	}

	created, err := s.plantRepo.Create(ctx, plant)
	if err != nil {
		s.discardImage(uploaded)
		return nil, repoError(err, "plant")
	}
	s.cache.invalidate(ctx)
	return &common.PlantResult{Plant: created}, nil
}

func (s *PlantService) saveImage(ctx context.Context, encoded string) (string, error) {
	if s.images == nil {
		return "", common.InvalidInput("image uploads are disabled")
	}
	img, err := infrastructure.DecodeImage(encoded, s.opts.ImageMaxBytes)
	if err != nil {
		if errors.Is(err, infrastructure.ErrImageTooLarge) {
			return "", common.InvalidInput(fmt.Sprintf("image exceeds %d bytes", s.opts.ImageMaxBytes))
		}
		return "", common.InvalidInput(err.Error())
	}
	url, err := s.images.Save(ctx, img)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return url, nil
}

// discardImage removes an upload whose plant row was never written.
func (s *PlantService) discardImage(url string) {
	if url == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(url); err != nil {
		s.logger.Warn("Failed to remove orphaned image", zap.String("url", url), zap.Error(err))
	}
}

func (s *PlantService) checkGardenOwner(ctx context.Context, gardenId, userId uuid.UUID) error {
	garden, err := s.gardenRepo.FindById(ctx, gardenId)
	if err != nil {
		return err
	}
	if garden == nil {
		return common.InvalidInput("garden not found")
	}
	if !garden.IsOwnedBy(userId) {
		return common.Forbidden("garden belongs to another user")
	}
	return nil
}

func (s *PlantService) GetPlant(ctx context.Context, userId, id uuid.UUID, from *geo.Point) (*common.PlantResult, error) {
	plant, err := s.plantRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, common.NotFound("plant not found")
	}
	results, err := s.decorate(ctx, userId, []*entities.Plant{plant})
	if err != nil {
		return nil, err
	}
	result := results[0]
	if from != nil {
		if err := from.Validate(); err != nil {
			return nil, common.InvalidInput(err.Error())
		}
		result.DistanceKm = roundKm(geo.DistanceKm(*from, plant.Location()))
	}
	return result, nil
}

func (s *PlantService) Nearby(ctx context.Context, nearbyQuery query.NearbyQuery) ([]*common.PlantResult, error) {
	q, center, err := validateNearby(nearbyQuery)
	if err != nil {
		return nil, err
	}

	candidates, err := nearbyCandidates(ctx, s.cache, q, s.plantRepo.Nearest)
	if err != nil {
		return nil, fmt.Errorf("nearby plants: %w", err)
	}
	plants, dists := withinRadius(candidates, center, q.RadiusKm, q.Limit, (*entities.Plant).Location, idOfPlant)
	results, err := s.decorate(ctx, q.UserId, plants)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		r.DistanceKm = roundKm(dists[i])
	}
	return results, nil
}

func (s *PlantService) Viewport(ctx context.Context, viewportQuery query.ViewportQuery) ([]*common.PlantResult, error) {
	q := viewportQuery.Normalize()
	box, err := geo.ViewportBox(q.MinLat, q.MinLng, q.MaxLat, q.MaxLng)
	if err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	plants, err := s.plantRepo.InBox(ctx, box, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("viewport plants: %w", err)
	}
	return s.decorate(ctx, q.UserId, plants)
}

func (s *PlantService) Mine(ctx context.Context, pageQuery query.PageQuery) (*common.PageResult[*common.PlantResult], error) {
	page := repositories.NewPage(pageQuery.Page, pageQuery.Size)
	plants, total, err := s.plantRepo.ListByOwner(ctx, pageQuery.UserId, page)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, pageQuery.UserId, plants, total, page)
}

func (s *PlantService) Liked(ctx context.Context, pageQuery query.PageQuery) (*common.PageResult[*common.PlantResult], error) {
	page := repositories.NewPage(pageQuery.Page, pageQuery.Size)
	plants, total, err := s.plantRepo.ListLikedBy(ctx, pageQuery.UserId, page)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, pageQuery.UserId, plants, total, page)
}

func (s *PlantService) page(ctx context.Context, userId uuid.UUID, plants []*entities.Plant, total int64, page repositories.Page) (*common.PageResult[*common.PlantResult], error) {
	results, err := s.decorate(ctx, userId, plants)
	if err != nil {
		return nil, err
	}
	return common.NewPageResult(results, total, page), nil
}

func (s *PlantService) UpdatePlant(ctx context.Context, updateCommand *command.UpdatePlantCommand) (*common.PlantResult, error) {
	plant, err := s.plantRepo.FindById(ctx, updateCommand.Id)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, common.NotFound("plant not found")
	}
	if !plant.IsOwnedBy(updateCommand.ActorId) {
		return nil, common.Forbidden("only the owner can edit this plant")
	}

	if updateCommand.Name != nil {
		plant.Name = strings.TrimSpace(*updateCommand.Name)
	}
	if updateCommand.Species != nil {
		plant.Species = strings.TrimSpace(*updateCommand.Species)
	}
	if updateCommand.Description != nil {
		plant.Description = strings.TrimSpace(*updateCommand.Description)
	}
	if updateCommand.Latitude != nil {
		plant.Latitude = *updateCommand.Latitude
	}
	if updateCommand.Longitude != nil {
		plant.Longitude = *updateCommand.Longitude
	}
	if updateCommand.Address != nil {
		plant.Address = strings.TrimSpace(*updateCommand.Address)
	}
	if updateCommand.ImageURL != nil {
		plant.ImageURL = strings.TrimSpace(*updateCommand.ImageURL)
	}
	if updateCommand.Tags != nil {
		plant.SetTags(updateCommand.Tags)
	}
	switch {
	case updateCommand.DetachGarden:
		plant.GardenId = nil
	case updateCommand.GardenId != nil:
		if err := s.checkGardenOwner(ctx, *updateCommand.GardenId, updateCommand.ActorId); err != nil {
			return nil, err
		}
		plant.GardenId = updateCommand.GardenId
	}
	if err := plant.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	var uploaded string
	if updateCommand.ImageBase64 != "" {
		url, err := s.saveImage(ctx, updateCommand.ImageBase64)
		if err != nil {
			return nil, err
		}
		plant.ImageURL = url
		uploaded = url
	}
	plant.UpdatedAt = time.Now()

	updated, err := s.plantRepo.Update(ctx, plant)
	if err != nil {
		s.discardImage(uploaded)
		return nil, repoError(err, "plant")
	}
	s.cache.invalidate(ctx)

	results, err := s.decorate(ctx, updateCommand.ActorId, []*entities.Plant{updated})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (s *PlantService) DeletePlant(ctx context.Context, actor command.Actor, id uuid.UUID) error {
	plant, err := s.plantRepo.FindById(ctx, id)
	if err != nil {
		return err
	}
	if plant == nil {
		return common.NotFound("plant not found")
	}
	if !plant.IsOwnedBy(actor.UserId) && !actor.IsAdmin {
		return common.Forbidden("only the owner can delete this plant")
	}
	if err := s.plantRepo.Delete(ctx, id); err != nil {
		return repoError(err, "plant")
	}
	s.cache.invalidate(ctx)
	return nil
}

func (s *PlantService) Like(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error) {
	state, err := s.likeRepo.Like(ctx, userId, entities.LikeTargetPlant, id)
	if err != nil {
		return nil, repoError(err, "plant")
	}
	s.events.Publish(ctx, messaging.SubjectPlantLiked, map[string]any{
		"plantId":   id,
		"userId":    userId,
		"likeCount": state.LikeCount,
	})
	return &common.LikeResult{Liked: state.Liked, LikeCount: state.LikeCount}, nil
}

func (s *PlantService) Unlike(ctx context.Context, userId, id uuid.UUID) (*common.LikeResult, error) {
	state, err := s.likeRepo.Unlike(ctx, userId, entities.LikeTargetPlant, id)
	if err != nil {
		return nil, repoError(err, "plant")
	}
	return &common.LikeResult{Liked: state.Liked, LikeCount: state.LikeCount}, nil
}

func (s *PlantService) decorate(ctx context.Context, userId uuid.UUID, plants []*entities.Plant) ([]*common.PlantResult, error) {
	return decoratePlants(ctx, s.likeRepo, userId, plants)
}

// decoratePlants attaches the caller's like flags.
func decoratePlants(ctx context.Context, likeRepo repositories.LikeRepository, userId uuid.UUID, plants []*entities.Plant) ([]*common.PlantResult, error) {
	ids := make([]uuid.UUID, 0, len(plants))
	for _, p := range plants {
		ids = append(ids, p.Id)
	}
	liked, err := likeRepo.LikedAmong(ctx, userId, entities.LikeTargetPlant, ids)
	if err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}
	out := make([]*common.PlantResult, 0, len(plants))
	for _, p := range plants {
		out = append(out, &common.PlantResult{Plant: p, Liked: liked[p.Id]})
	}
	return out, nil
}

func idOfPlant(p *entities.Plant) uuid.UUID { return p.Id }
