package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
)

type WikiService interface {
	Seed(ctx context.Context, entries []*entities.WikiEntry) (int, error)
	Search(ctx context.Context, searchQuery query.WikiSearchQuery) (*common.PageResult[*entities.WikiEntry], error)
	GetEntry(ctx context.Context, id uuid.UUID) (*entities.WikiEntry, error)
}

type SurveyService interface {
	CreateSurvey(ctx context.Context, createCommand *command.CreateSurveyCommand) (*common.SurveyResult, error)
	ListSurveys(ctx context.Context, listQuery query.ListSurveysQuery) (*common.PageResult[*common.SurveyResult], error)
	GetSurvey(ctx context.Context, actor command.Actor, id uuid.UUID) (*common.SurveyResult, error)
	UpdateSurvey(ctx context.Context, updateCommand *command.UpdateSurveyCommand) (*common.SurveyResult, error)
	DeleteSurvey(ctx context.Context, actor command.Actor, id uuid.UUID) error
	AddQuestion(ctx context.Context, addCommand *command.AddQuestionCommand) ([]*common.QuestionResult, error)
	UpdateQuestion(ctx context.Context, updateCommand *command.UpdateQuestionCommand) ([]*common.QuestionResult, error)
	DeleteQuestion(ctx context.Context, deleteCommand *command.DeleteQuestionCommand) ([]*common.QuestionResult, error)
	SubmitResponse(ctx context.Context, submitCommand *command.SubmitResponseCommand) (*common.ResponseResult, error)
	ListResponses(ctx context.Context, actor command.Actor, surveyId uuid.UUID, page, size int) (*common.PageResult[*common.ResponseResult], error)
	Stats(ctx context.Context, actor command.Actor, surveyId uuid.UUID) (*common.SurveyStats, error)
}

type AIService interface {
	Chat(ctx context.Context, chatCommand *command.ChatCommand) (*common.AIResult, error)
	Identify(ctx context.Context, identifyCommand *command.IdentifyCommand) (*common.AIResult, error)
	Care(ctx context.Context, careCommand *command.CareCommand) (*common.AIResult, error)
}
