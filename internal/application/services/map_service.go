package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/application/query"
)

// MapService answers the map screen with plants and gardens in one call.
type MapService struct {
	plants  interfaces.PlantService
	gardens interfaces.GardenService
}

func NewMapService(plants interfaces.PlantService, gardens interfaces.GardenService) *MapService {
	return &MapService{plants: plants, gardens: gardens}
}

var _ interfaces.MapService = (*MapService)(nil)

func (s *MapService) Nearby(ctx context.Context, nearbyQuery query.NearbyQuery) (*common.MapResult, error) {
	result := &common.MapResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		plants, err := s.plants.Nearby(gctx, nearbyQuery)
		result.Plants = plants
		return err
	})
	g.Go(func() error {
		gardens, err := s.gardens.Nearby(gctx, nearbyQuery)
		result.Gardens = gardens
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
