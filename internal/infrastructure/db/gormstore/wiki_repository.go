package gormstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type WikiRepository struct {
	db *gorm.DB
}

func NewWikiRepository(db *gorm.DB) repositories.WikiRepository {
	return &WikiRepository{db: db}
}

func (r *WikiRepository) Upsert(ctx context.Context, entries []*entities.WikiEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]WikiEntryModel, 0, len(entries))
	for _, e := range entries {
		id := e.Id
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows = append(rows, WikiEntryModel{
			Id:             id,
			Name:           e.Name,
			ScientificName: e.ScientificName,
			Family:         e.Family,
			Description:    e.Description,
			ImageURL:       e.ImageURL,
			CareLevel:      e.CareLevel,
			Light:          e.Light,
			PlantType:      e.PlantType,
			Location:       e.Location,
			Size:           e.Size,
			Watering:       e.Watering,
			Temperature:    e.Temperature,
			Humidity:       e.Humidity,
			Toxicity:       e.Toxicity,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scientific_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "family", "description", "image_url", "care_level", "light",
			"plant_type", "location", "size", "watering", "temperature", "humidity",
			"toxicity", "updated_at",
		}),
	}).CreateInBatches(&rows, 100).Error
	if err != nil {
		return 0, translate(err)
	}
	return len(rows), nil
}

func (r *WikiRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.WikiEntry, error) {
	var model WikiEntryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mapWiki(&model), nil
}

// Search narrows in SQL on the scalar columns, then applies the full filter in
// memory since light is a JSON list and location "both" matches either side.
func (r *WikiRepository) Search(ctx context.Context, filter entities.WikiFilter, page repositories.Page) ([]*entities.WikiEntry, int64, error) {
	filter = filter.Normalize()
	q := r.db.WithContext(ctx).Model(&WikiEntryModel{})
	if filter.Keyword != "" {
		like := "%" + strings.ToLower(filter.Keyword) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(scientific_name) LIKE ? OR LOWER(family) LIKE ?", like, like, like)
	}
	if filter.CareLevel != "" {
		q = q.Where("care_level = ?", filter.CareLevel)
	}
	if filter.PlantType != "" {
		q = q.Where("plant_type = ?", filter.PlantType)
	}
	if filter.Size != "" {
		q = q.Where("size = ?", filter.Size)
	}

	var models []WikiEntryModel
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, err
	}

	matched := make([]*entities.WikiEntry, 0, len(models))
	for i := range models {
		if e := mapWiki(&models[i]); filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := strings.ToLower(matched[i].Name), strings.ToLower(matched[j].Name)
		if a != b {
			return a < b
		}
		return matched[i].ScientificName < matched[j].ScientificName
	})

	total := int64(len(matched))
	start := page.Offset()
	if start >= len(matched) {
		return []*entities.WikiEntry{}, total, nil
	}
	end := min(start+page.Size, len(matched))
	return matched[start:end], total, nil
}

func mapWiki(m *WikiEntryModel) *entities.WikiEntry {
	light := m.Light
	if light == nil {
		light = make([]string, 0)
	}
	return &entities.WikiEntry{
		Id:             m.Id,
		Name:           m.Name,
		ScientificName: m.ScientificName,
		Family:         m.Family,
		Description:    m.Description,
		ImageURL:       m.ImageURL,
		CareLevel:      m.CareLevel,
		Light:          light,
		PlantType:      m.PlantType,
		Location:       m.Location,
		Size:           m.Size,
		Watering:       m.Watering,
		Temperature:    m.Temperature,
		Humidity:       m.Humidity,
		Toxicity:       m.Toxicity,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
