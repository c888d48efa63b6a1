package command

import "github.com/google/uuid"

type AddPlantCommand struct {
	OwnerId        uuid.UUID  `json:"ownerId"`
	Name           string     `json:"name"`
	Species        string     `json:"species"`
	Description    string     `json:"description"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	Address        string     `json:"address"`
	GardenId       *uuid.UUID `json:"gardenId"`
	ImageBase64    string     `json:"-"`
	ImageURL       string     `json:"imageUrl"`
	Tags           []string   `json:"tags"`
	IdempotencyKey string     `json:"-"`
}

// UpdatePlantCommand is a partial update; nil fields stay unchanged.
type UpdatePlantCommand struct {
	Id           uuid.UUID
	ActorId      uuid.UUID
	Name         *string
	Species      *string
	Description  *string
	Latitude     *float64
	Longitude    *float64
	Address      *string
	GardenId     *uuid.UUID
	DetachGarden bool
	ImageBase64  string
	ImageURL     *string
	Tags         []string
}

type CreateGardenCommand struct {
	OwnerId     uuid.UUID
	Name        string
	Description string
	Latitude    *float64
	Longitude   *float64
	Address     string
	CoverURL    string
	IsPublic    *bool
}

type UpdateGardenCommand struct {
	Id          uuid.UUID
	ActorId     uuid.UUID
	Name        *string
	Description *string
	Latitude    *float64
	Longitude   *float64
	Address     *string
	CoverURL    *string
	IsPublic    *bool
}
