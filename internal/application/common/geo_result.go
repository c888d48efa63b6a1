package common

import "github.com/greenmap/plant-service/internal/domain/entities"

type PlantResult struct {
	*entities.Plant
	Liked      bool     `json:"liked"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type GardenResult struct {
	*entities.Garden
	Liked      bool     `json:"liked"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

type MapResult struct {
	Plants  []*PlantResult  `json:"plants"`
	Gardens []*GardenResult `json:"gardens"`
}
