package query

import (
	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

type WikiSearchQuery struct {
	Filter entities.WikiFilter
	Page   int
	Size   int
}

type ListSurveysQuery struct {
	UserId  uuid.UUID
	IsAdmin bool
	Status  string
	Keyword string
	Page    int
	Size    int
}
