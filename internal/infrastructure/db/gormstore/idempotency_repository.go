package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type IdempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) repositories.IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) FindByKey(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
	var record IdempotencyRecord
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&record), nil
}

func (r *IdempotencyRepository) Create(ctx context.Context, record *entities.IdempotencyRecord) (*entities.IdempotencyRecord, error) {
	model := IdempotencyRecord{
		Id:         record.Id,
		Key:        record.Key,
		Request:    record.Request,
		Response:   record.Response,
		StatusCode: record.StatusCode,
		CreatedAt:  record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, translate(err)
	}
	return r.mapToEntity(&model), nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key, response string, statusCode int) error {
	res := r.db.WithContext(ctx).Model(&IdempotencyRecord{}).Where("key = ?", key).
		Updates(map[string]any{"response": response, "status_code": statusCode})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *IdempotencyRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&IdempotencyRecord{}).Error
}

func (r *IdempotencyRepository) mapToEntity(m *IdempotencyRecord) *entities.IdempotencyRecord {
	return &entities.IdempotencyRecord{
		Id:         m.Id,
		Key:        m.Key,
		Request:    m.Request,
		Response:   m.Response,
		StatusCode: m.StatusCode,
		CreatedAt:  m.CreatedAt,
	}
}
