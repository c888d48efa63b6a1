package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type SurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) repositories.SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) Create(ctx context.Context, survey *entities.Survey, questions []*entities.SurveyQuestion) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := toSurveyModel(survey)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		rows := make([]SurveyQuestionModel, 0, len(questions))
		for _, q := range questions {
			rows = append(rows, toQuestionModel(q))
		}
		return tx.Create(&rows).Error
	})
	return translate(err)
}

func (r *SurveyRepository) FindById(ctx context.Context, id uuid.UUID) (*entities.Survey, error) {
	var model SurveyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mapSurvey(&model), nil
}

func (r *SurveyRepository) Update(ctx context.Context, survey *entities.Survey) error {
	model := toSurveyModel(survey)
	res := r.db.WithContext(ctx).Model(&SurveyModel{}).Where("id = ?", survey.Id).
		Select("title", "description", "status", "updated_at").
		Updates(&model)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *SurveyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", id).Delete(&SurveyResponseModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&SurveyQuestionModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&SurveyModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repositories.ErrNotFound
		}
		return nil
	})
	return translate(err)
}

func (r *SurveyRepository) List(ctx context.Context, filter repositories.SurveyFilter, page repositories.Page) ([]*entities.Survey, int64, error) {
	q := r.db.WithContext(ctx).Model(&SurveyModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.VisibleTo != nil {
		q = q.Where("status <> ? OR created_by = ?", string(entities.SurveyDraft), *filter.VisibleTo)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []SurveyModel
	if err := q.Order("created_at DESC").Order("id").Offset(page.Offset()).Limit(page.Size).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.Survey, 0, len(models))
	for i := range models {
		out = append(out, mapSurvey(&models[i]))
	}
	return out, total, nil
}

func (r *SurveyRepository) Questions(ctx context.Context, surveyId uuid.UUID) ([]*entities.SurveyQuestion, error) {
	return loadQuestions(r.db.WithContext(ctx), surveyId)
}

func (r *SurveyRepository) ReorderQuestions(ctx context.Context, surveyId uuid.UUID, fn func([]*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error)) ([]*entities.SurveyQuestion, error) {
	var result []*entities.SurveyQuestion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialise concurrent edits of the same survey. SQLite ignores the clause
		// and relies on its single writer.
		var survey SurveyModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", surveyId).First(&survey).Error; err != nil {
			return err
		}
		if survey.Status != string(entities.SurveyDraft) {
			return entities.ErrSurveyNotDraft
		}

		current, err := loadQuestions(tx, surveyId)
		if err != nil {
			return err
		}
		existing := make(map[uuid.UUID]bool, len(current))
		for _, q := range current {
			existing[q.Id] = true
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		entities.Renumber(next)

		keep := make(map[uuid.UUID]bool, len(next))
		for _, q := range next {
			keep[q.Id] = true
		}
		for id := range existing {
			if keep[id] {
				continue
			}
			if err := tx.Delete(&SurveyQuestionModel{}, "id = ?", id).Error; err != nil {
				return err
			}
		}

		for _, q := range next {
			q.SurveyId = surveyId
			model := toQuestionModel(q)
			if !existing[q.Id] {
				if err := tx.Create(&model).Error; err != nil {
					return err
				}
				continue
			}
			err := tx.Model(&SurveyQuestionModel{}).Where("id = ?", q.Id).
				Select("order_num", "kind", "title", "options", "required").
				Updates(&model).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Model(&SurveyModel{}).Where("id = ?", surveyId).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return result, nil
}

func (r *SurveyRepository) CreateResponse(ctx context.Context, response *entities.SurveyResponse) error {
	model := SurveyResponseModel{
		Id:        response.Id,
		SurveyId:  response.SurveyId,
		UserId:    response.UserId,
		Answers:   response.Answers,
		CreatedAt: response.CreatedAt,
	}
	return translate(r.db.WithContext(ctx).Create(&model).Error)
}

func (r *SurveyRepository) HasResponded(ctx context.Context, surveyId, userId uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&SurveyResponseModel{}).
		Where("survey_id = ? AND user_id = ?", surveyId, userId).Count(&n).Error
	return n > 0, err
}

func (r *SurveyRepository) ListResponses(ctx context.Context, surveyId uuid.UUID, page repositories.Page) ([]*entities.SurveyResponse, int64, error) {
	q := r.db.WithContext(ctx).Model(&SurveyResponseModel{}).Where("survey_id = ?", surveyId).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []SurveyResponseModel
	if err := q.Order("created_at").Order("id").Offset(page.Offset()).Limit(page.Size).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return mapResponses(models), total, nil
}

func (r *SurveyRepository) AllResponses(ctx context.Context, surveyId uuid.UUID) ([]*entities.SurveyResponse, error) {
	var models []SurveyResponseModel
	if err := r.db.WithContext(ctx).Where("survey_id = ?", surveyId).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapResponses(models), nil
}

func loadQuestions(db *gorm.DB, surveyId uuid.UUID) ([]*entities.SurveyQuestion, error) {
	var models []SurveyQuestionModel
	if err := db.Where("survey_id = ?", surveyId).Order("order_num").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.SurveyQuestion, 0, len(models))
	for i := range models {
		m := &models[i]
		options := m.Options
		if options == nil {
			options = make([]string, 0)
		}
		out = append(out, &entities.SurveyQuestion{
			Id:       m.Id,
			SurveyId: m.SurveyId,
			OrderNum: m.OrderNum,
			Kind:     entities.QuestionKind(m.Kind),
			Title:    m.Title,
			Options:  options,
			Required: m.Required,
		})
	}
	return out, nil
}

func toSurveyModel(s *entities.Survey) SurveyModel {
	return SurveyModel{
		Id:          s.Id,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func mapSurvey(m *SurveyModel) *entities.Survey {
	return &entities.Survey{
		Id:          m.Id,
		Title:       m.Title,
		Description: m.Description,
		Status:      entities.SurveyStatus(m.Status),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toQuestionModel(q *entities.SurveyQuestion) SurveyQuestionModel {
	return SurveyQuestionModel{
		Id:       q.Id,
		SurveyId: q.SurveyId,
		OrderNum: q.OrderNum,
		Kind:     string(q.Kind),
		Title:    q.Title,
		Options:  q.Options,
		Required: q.Required,
	}
}

func mapResponses(models []SurveyResponseModel) []*entities.SurveyResponse {
	out := make([]*entities.SurveyResponse, 0, len(models))
	for i := range models {
		m := &models[i]
		out = append(out, &entities.SurveyResponse{
			Id:        m.Id,
			SurveyId:  m.SurveyId,
			UserId:    m.UserId,
			Answers:   m.Answers,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
