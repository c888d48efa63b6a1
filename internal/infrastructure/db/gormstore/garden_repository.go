package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/geo"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type GardenRepository struct {
	db *gorm.DB
}

func NewGardenRepository(db *gorm.DB) repositories.GardenRepository {
	return &GardenRepository{db: db}
}

func (r *GardenRepository) Create(ctx context.Context, garden *entities.Garden) (*entities.Garden, error) {
	model := toGardenModel(garden)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, translate(err)
	}
	return r.FindById(ctx, garden.Id)
}

func (r *GardenRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.Garden, error) {
	var model GardenModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mapGarden(&model), nil
}

func (r *GardenRepository) Update(ctx context.Context, garden *entities.Garden) (*entities.Garden, error) {
	model := toGardenModel(garden)
	res := r.db.WithContext(ctx).Model(&GardenModel{}).Where("id = ?", garden.Id).
		Select("name", "description", "latitude", "longitude", "address", "cover_url", "is_public", "updated_at").
		Updates(&model)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}
	return r.FindById(ctx, garden.Id)
}

func (r *GardenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&GardenModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repositories.ErrNotFound
		}
		if err := tx.Where("target_type = ? AND target_id = ?", string(entities.LikeTargetGarden), id).Delete(&LikeModel{}).Error; err != nil {
			return err
		}
		return tx.Model(&PlantModel{}).Where("garden_id = ?", id).Update("garden_id", nil).Error
	})
	return translate(err)
}

func (r *GardenRepository) InBox(ctx context.Context, box geo.Box, limit int) ([]*entities.Garden, error) {
	where, args := boxClause(box)
	var models []GardenModel
	err := r.db.WithContext(ctx).Where("is_public = ?", true).Where(where, args...).Order("id").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapGardens(models), nil
}

func (r *GardenRepository) Nearest(ctx context.Context, box geo.Box, center geo.Point, limit int) ([]*entities.Garden, error) {
	where, args := boxClause(box)
	var models []GardenModel
	err := r.db.WithContext(ctx).Where("is_public = ?", true).Where(where, args...).
		Clauses(nearestOrder(center)).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapGardens(models), nil
}

func (r *GardenRepository) ListByOwner(ctx context.Context, ownerId uuid.UUID, page repositories.Page) ([]*entities.Garden, int64, error) {
	q := r.db.WithContext(ctx).Model(&GardenModel{}).Where("owner_id = ?", ownerId).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []GardenModel
	if err := q.Order("created_at DESC").Order("id").Offset(page.Offset()).Limit(page.Size).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return mapGardens(models), total, nil
}

func toGardenModel(g *entities.Garden) GardenModel {
	return GardenModel{
		Id:          g.Id,
		OwnerId:     g.OwnerId,
		Name:        g.Name,
		Description: g.Description,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		Address:     g.Address,
		CoverURL:    g.CoverURL,
		IsPublic:    g.IsPublic,
		LikeCount:   g.LikeCount,
		PlantCount:  g.PlantCount,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func mapGarden(m *GardenModel) *entities.Garden {
	return &entities.Garden{
		Id:          m.Id,
		OwnerId:     m.OwnerId,
		Name:        m.Name,
		Description: m.Description,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		Address:     m.Address,
		CoverURL:    m.CoverURL,
		IsPublic:    m.IsPublic,
		LikeCount:   m.LikeCount,
		PlantCount:  m.PlantCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func mapGardens(models []GardenModel) []*entities.Garden {
	out := make([]*entities.Garden, 0, len(models))
	for i := range models {
		out = append(out, mapGarden(&models[i]))
	}
	return out
}
