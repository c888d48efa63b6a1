package gormstore

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/geo"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type PlantRepository struct {
	db *gorm.DB
}

func NewPlantRepository(db *gorm.DB) repositories.PlantRepository {
	return &PlantRepository{db: db}
}

func (r *PlantRepository) Create(ctx context.Context, plant *entities.Plant) (*entities.Plant, error) {
	model := toPlantModel(plant)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if model.GardenId != nil {
			return adjustPlantCount(tx, *model.GardenId, 1)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return r.FindById(ctx, plant.Id)
}

func (r *PlantRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.Plant, error) {
	var model PlantModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mapPlant(&model), nil
}

func (r *PlantRepository) Update(ctx context.Context, plant *entities.Plant) (*entities.Plant, error) {
	model := toPlantModel(plant)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current PlantModel
		if err := tx.Where("id = ?", plant.Id).First(&current).Error; err != nil {
			return err
		}
		err := tx.Model(&PlantModel{}).Where("id = ?", plant.Id).
			Select("garden_id", "name", "species", "description", "latitude", "longitude", "address", "image_url", "tags", "updated_at").
			Updates(&model).Error
		if err != nil {
			return err
		}
		if sameGarden(current.GardenId, model.GardenId) {
			return nil
		}
		if current.GardenId != nil {
			if err := adjustPlantCount(tx, *current.GardenId, -1); err != nil {
				return err
			}
		}
		if model.GardenId != nil {
			return adjustPlantCount(tx, *model.GardenId, 1)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return r.FindById(ctx, plant.Id)
}

func (r *PlantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current PlantModel
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", string(entities.LikeTargetPlant), id).Delete(&LikeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&PlantModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		if current.GardenId != nil {
			return adjustPlantCount(tx, *current.GardenId, -1)
		}
		return nil
	})
	return translate(err)
}

func (r *PlantRepository) InBox(ctx context.Context, box geo.Box, limit int) ([]*entities.Plant, error) {
	where, args := boxClause(box)
	var models []PlantModel
	err := r.db.WithContext(ctx).Where(where, args...).Order("id").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapPlants(models), nil
}

func (r *PlantRepository) Nearest(ctx context.Context, box geo.Box, center geo.Point, limit int) ([]*entities.Plant, error) {
	where, args := boxClause(box)
	var models []PlantModel
	err := r.db.WithContext(ctx).Where(where, args...).Clauses(nearestOrder(center)).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapPlants(models), nil
}

func (r *PlantRepository) ListByOwner(ctx context.Context, ownerId uuid.UUID, page repositories.Page) ([]*entities.Plant, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&PlantModel{}).Where("owner_id = ?", ownerId), page)
}

func (r *PlantRepository) ListByGarden(ctx context.Context, gardenId uuid.UUID, page repositories.Page) ([]*entities.Plant, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&PlantModel{}).Where("garden_id = ?", gardenId), page)
}

func (r *PlantRepository) ListLikedBy(ctx context.Context, userId uuid.UUID, page repositories.Page) ([]*entities.Plant, int64, error) {
	liked := r.db.Model(&LikeModel{}).Select("target_id").
		Where("user_id = ? AND target_type = ?", userId, string(entities.LikeTargetPlant))
	return r.paginate(r.db.WithContext(ctx).Model(&PlantModel{}).Where("id IN (?)", liked), page)
}

func (r *PlantRepository) paginate(q *gorm.DB, page repositories.Page) ([]*entities.Plant, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []PlantModel
	if err := q.Order("created_at DESC").Order("id").Offset(page.Offset()).Limit(page.Size).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return mapPlants(models), total, nil
}

// boxClause renders a geo.Box as a WHERE fragment over latitude/longitude columns.
func boxClause(box geo.Box) (string, []any) {
	args := []any{box.MinLat, box.MaxLat}
	parts := make([]string, 0, len(box.LngRanges))
	for _, lr := range box.LngRanges {
		parts = append(parts, "longitude BETWEEN ? AND ?")
		args = append(args, lr.Min, lr.Max)
	}
	return "latitude BETWEEN ? AND ? AND (" + strings.Join(parts, " OR ") + ")", args
}

// nearestOrder sorts rows by an equirectangular distance proxy from center,
// wrapping longitude across the antimeridian, then by id.
func nearestOrder(center geo.Point) clause.OrderBy {
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dLng := "(CASE WHEN ABS(longitude - ?) > 180 THEN 360 - ABS(longitude - ?) ELSE ABS(longitude - ?) END)"
	return clause.OrderBy{Expression: clause.Expr{
		SQL: "(latitude - ?) * (latitude - ?) + " + dLng + " * " + dLng + " * ?, id",
		Vars: []any{
			center.Lat, center.Lat,
			center.Lng, center.Lng, center.Lng,
			center.Lng, center.Lng, center.Lng,
			cosLat * cosLat,
		},
		WithoutParentheses: true,
	}}
}

func adjustPlantCount(tx *gorm.DB, gardenId uuid.UUID, delta int) error {
	q := tx.Model(&GardenModel{}).Where("id = ?", gardenId)
	if delta < 0 {
		q = q.Where("plant_count > 0")
	}
	return q.UpdateColumn("plant_count", gorm.Expr("plant_count + ?", delta)).Error
}

func sameGarden(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func toPlantModel(p *entities.Plant) PlantModel {
	return PlantModel{
		Id:          p.Id,
		OwnerId:     p.OwnerId,
		GardenId:    p.GardenId,
		Name:        p.Name,
		Species:     p.Species,
		Description: p.Description,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Address:     p.Address,
		ImageURL:    p.ImageURL,
		Tags:        p.Tags,
		LikeCount:   p.LikeCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func mapPlant(m *PlantModel) *entities.Plant {
	tags := m.Tags
	if tags == nil {
		tags = make([]string, 0)
	}
	return &entities.Plant{
		Id:          m.Id,
		OwnerId:     m.OwnerId,
		GardenId:    m.GardenId,
		Name:        m.Name,
		Species:     m.Species,
		Description: m.Description,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		Address:     m.Address,
		ImageURL:    m.ImageURL,
		Tags:        tags,
		LikeCount:   m.LikeCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func mapPlants(models []PlantModel) []*entities.Plant {
	out := make([]*entities.Plant, 0, len(models))
	for i := range models {
		out = append(out, mapPlant(&models[i]))
	}
	return out
}
