package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

type SurveyFilter struct {
	Status  entities.SurveyStatus
	Keyword string
	// VisibleTo limits non-admin callers to published surveys and their own.
	VisibleTo *uuid.UUID
}

type SurveyRepository interface {
	Create(ctx context.Context, survey *entities.Survey, questions []*entities.SurveyQuestion) error
	FindById(ctx context.Context, id uuid.UUID) (*entities.Survey, error)
	Update(ctx context.Context, survey *entities.Survey) error
	// Delete removes the survey with its questions and responses.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter SurveyFilter, page Page) ([]*entities.Survey, int64, error)

	Questions(ctx context.Context, surveyId uuid.UUID) ([]*entities.SurveyQuestion, error)
	// ReorderQuestions loads the survey's questions inside a transaction, lets
	// fn rearrange them and persists the result. Questions missing from the
	// returned slice are deleted; new ones are inserted. A survey that is no
	// longer a draft yields entities.ErrSurveyNotDraft without calling fn.
	ReorderQuestions(ctx context.Context, surveyId uuid.UUID, fn func([]*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error)) ([]*entities.SurveyQuestion, error)

	CreateResponse(ctx context.Context, response *entities.SurveyResponse) error
	HasResponded(ctx context.Context, surveyId, userId uuid.UUID) (bool, error)
	ListResponses(ctx context.Context, surveyId uuid.UUID, page Page) ([]*entities.SurveyResponse, int64, error)
	AllResponses(ctx context.Context, surveyId uuid.UUID) ([]*entities.SurveyResponse, error)
}
