package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/geo"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
	maxTags              = 10
)

type Plant struct {
	Id          uuid.UUID  `json:"id"`
	OwnerId     uuid.UUID  `json:"ownerId"`
	GardenId    *uuid.UUID `json:"gardenId,omitempty"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Description string     `json:"description"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Address     string     `json:"address"`
	ImageURL    string     `json:"imageUrl"`
	Tags        []string   `json:"tags"`
	LikeCount   int64      `json:"likeCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewPlant(ownerId uuid.UUID, name string, lat, lng float64) *Plant {
	now := time.Now()
	return &Plant{
		Id:        uuid.New(),
		OwnerId:   ownerId,
		Name:      strings.TrimSpace(name),
		Latitude:  lat,
		Longitude: lng,
		Tags:      make([]string, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Plant) Location() geo.Point {
	return geo.Point{Lat: p.Latitude, Lng: p.Longitude}
}

func (p *Plant) Validate() error {
	if p.Name == "" {
		return errors.New("name must not be empty")
	}
	if len(p.Name) > maxNameLength {
		return errors.New("name must be at most 100 characters")
	}
	if len(p.Description) > maxDescriptionLength {
		return errors.New("description must be at most 2000 characters")
	}
	if len(p.Tags) > maxTags {
		return errors.New("at most 10 tags are allowed")
	}
	return p.Location().Validate()
}

// SetTags trims, lowercases and deduplicates tags, keeping first-seen order.
func (p *Plant) SetTags(tags []string) {
	p.Tags = NormalizeTags(tags)
}

func (p *Plant) IsOwnedBy(userId uuid.UUID) bool {
	return p.OwnerId == userId
}

func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
