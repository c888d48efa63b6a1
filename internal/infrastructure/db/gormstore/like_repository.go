package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) repositories.LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Like(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, targetId uuid.UUID) (entities.LikeState, error) {
	return r.toggle(ctx, userId, target, targetId, true)
}

func (r *LikeRepository) Unlike(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, targetId uuid.UUID) (entities.LikeState, error) {
	return r.toggle(ctx, userId, target, targetId, false)
}

func (r *LikeRepository) toggle(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, targetId uuid.UUID, like bool) (entities.LikeState, error) {
	counter, err := counterModel(target)
	if err != nil {
		return entities.LikeState{}, err
	}

	var state entities.LikeState
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(counter).Where("id = ?", targetId).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return repositories.ErrNotFound
		}

		var changed int64
		if like {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&LikeModel{
				UserId:     userId,
				TargetType: string(target),
				TargetId:   targetId,
				CreatedAt:  time.Now().UTC(),
			})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected
		} else {
			res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userId, string(target), targetId).
				Delete(&LikeModel{})
			if res.Error != nil {
				return res.Error
			}
			changed = -res.RowsAffected
		}

		if changed != 0 {
			q := tx.Model(counter).Where("id = ?", targetId)
			if changed < 0 {
				q = q.Where("like_count > 0")
			}
			if err := q.UpdateColumn("like_count", gorm.Expr("like_count + ?", changed)).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(counter).Select("like_count").Where("id = ?", targetId).Scan(&count).Error; err != nil {
			return err
		}
		state = entities.LikeState{Liked: like, LikeCount: count}
		return nil
	})
	if err != nil {
		return entities.LikeState{}, translate(err)
	}
	return state, nil
}

func (r *LikeRepository) LikedAmong(ctx context.Context, userId uuid.UUID, target entities.LikeTarget, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return liked, nil
	}
	var targetIds []uuid.UUID
	err := r.db.WithContext(ctx).Model(&LikeModel{}).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userId, string(target), ids).
		Pluck("target_id", &targetIds).Error
	if err != nil {
		return nil, err
	}
	for _, id := range targetIds {
		liked[id] = true
	}
	return liked, nil
}

func counterModel(target entities.LikeTarget) (any, error) {
	switch target {
	case entities.LikeTargetPlant:
		return &PlantModel{}, nil
	case entities.LikeTargetGarden:
		return &GardenModel{}, nil
	}
	return nil, repositories.ErrNotFound
}
