package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/geo"
)

type Garden struct {
	Id          uuid.UUID `json:"id"`
	OwnerId     uuid.UUID `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
	CoverURL    string    `json:"coverUrl"`
	IsPublic    bool      `json:"isPublic"`
	LikeCount   int64     `json:"likeCount"`
	PlantCount  int64     `json:"plantCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewGarden(ownerId uuid.UUID, name string, lat, lng float64) *Garden {
	now := time.Now()
	return &Garden{
		Id:        uuid.New(),
		OwnerId:   ownerId,
		Name:      strings.TrimSpace(name),
		Latitude:  lat,
		Longitude: lng,
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (g *Garden) Location() geo.Point {
	return geo.Point{Lat: g.Latitude, Lng: g.Longitude}
}

func (g *Garden) Validate() error {
	if g.Name == "" {
		return errors.New("name must not be empty")
	}
	if len(g.Name) > maxNameLength {
		return errors.New("name must be at most 100 characters")
	}
	if len(g.Description) > maxDescriptionLength {
		return errors.New("description must be at most 2000 characters")
	}
	return g.Location().Validate()
}

func (g *Garden) IsOwnedBy(userId uuid.UUID) bool {
	return g.OwnerId == userId
}

// VisibleTo reports whether userId may read the garden.
func (g *Garden) VisibleTo(userId uuid.UUID) bool {
	return g.IsPublic || g.OwnerId == userId
}
