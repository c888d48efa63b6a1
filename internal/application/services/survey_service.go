package services

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/application/mapper"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
)

type SurveyService struct {
	surveyRepo repositories.SurveyRepository
	events     interfaces.EventPublisher
	logger     *zap.Logger
}

func NewSurveyService(surveyRepo repositories.SurveyRepository, events interfaces.EventPublisher, logger *zap.Logger) *SurveyService {
	return &SurveyService{surveyRepo: surveyRepo, events: events, logger: logger}
}

var _ interfaces.SurveyService = (*SurveyService)(nil)

func (s *SurveyService) CreateSurvey(ctx context.Context, createCommand *command.CreateSurveyCommand) (*common.SurveyResult, error) {
	survey := entities.NewSurvey(createCommand.Actor.UserId, createCommand.Title, createCommand.Description)
	if err := survey.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}

	// inline questions keep the order they were given in
	questions := make([]*entities.SurveyQuestion, 0, len(createCommand.Questions))
	for _, in := range createCommand.Questions {
		q, err := newQuestion(survey.Id, in)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	entities.Renumber(questions)

	if err := s.surveyRepo.Create(ctx, survey, questions); err != nil {
		return nil, repoError(err, "survey")
	}
	s.logger.Info("Survey created", zap.String("survey_id", survey.Id.String()), zap.Int("questions", len(questions)))
	return mapper.NewSurveyResult(survey, questions), nil
}

func (s *SurveyService) ListSurveys(ctx context.Context, listQuery query.ListSurveysQuery) (*common.PageResult[*common.SurveyResult], error) {
	filter := repositories.SurveyFilter{Keyword: strings.TrimSpace(listQuery.Keyword)}
	if listQuery.Status != "" {
		status, err := entities.ParseSurveyStatus(listQuery.Status)
		if err != nil {
			return nil, common.InvalidInput(err.Error())
		}
		filter.Status = status
	}
	if !listQuery.IsAdmin {
		userId := listQuery.UserId
		filter.VisibleTo = &userId
	}

	page := repositories.NewPage(listQuery.Page, listQuery.Size)
	surveys, total, err := s.surveyRepo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	results := make([]*common.SurveyResult, 0, len(surveys))
	for _, sv := range surveys {
		results = append(results, mapper.NewSurveyResult(sv, nil))
	}
	return common.NewPageResult(results, total, page), nil
}

// GetSurvey hides drafts from everyone but their creator and admins.
func (s *SurveyService) GetSurvey(ctx context.Context, actor command.Actor, id uuid.UUID) (*common.SurveyResult, error) {
	survey, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.surveyRepo.Questions(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapper.NewSurveyResult(survey, questions), nil
}

func (s *SurveyService) UpdateSurvey(ctx context.Context, updateCommand *command.UpdateSurveyCommand) (*common.SurveyResult, error) {
	survey, err := s.findEditable(ctx, updateCommand.Actor, updateCommand.SurveyId)
	if err != nil {
		return nil, err
	}
	if updateCommand.Title != nil {
		survey.Title = strings.TrimSpace(*updateCommand.Title)
	}
	if updateCommand.Description != nil {
		survey.Description = strings.TrimSpace(*updateCommand.Description)
	}
	if err := survey.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	if updateCommand.Status != nil {
		status, err := entities.ParseSurveyStatus(*updateCommand.Status)
		if err != nil {
			return nil, common.InvalidInput(err.Error())
		}
		if err := survey.TransitionTo(status); err != nil {
			return nil, common.Conflict(err.Error())
		}
	}
	survey.UpdatedAt = time.Now()

	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, repoError(err, "survey")
	}
	return s.GetSurvey(ctx, updateCommand.Actor, survey.Id)
}

func (s *SurveyService) DeleteSurvey(ctx context.Context, actor command.Actor, id uuid.UUID) error {
	if _, err := s.findEditable(ctx, actor, id); err != nil {
		return err
	}
	return repoError(s.surveyRepo.Delete(ctx, id), "survey")
}

func (s *SurveyService) AddQuestion(ctx context.Context, addCommand *command.AddQuestionCommand) ([]*common.QuestionResult, error) {
	if _, err := s.findDraft(ctx, addCommand.Actor, addCommand.SurveyId); err != nil {
		return nil, err
	}
	question, err := newQuestion(addCommand.SurveyId, addCommand.Question)
	if err != nil {
		return nil, err
	}
	questions, err := s.surveyRepo.ReorderQuestions(ctx, addCommand.SurveyId, func(current []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
		return entities.InsertQuestion(current, question, addCommand.Question.OrderNum), nil
	})
	if err != nil {
		return nil, repoError(err, "survey")
	}
	return mapper.NewQuestionResults(questions), nil
}

func (s *SurveyService) UpdateQuestion(ctx context.Context, updateCommand *command.UpdateQuestionCommand) ([]*common.QuestionResult, error) {
	if _, err := s.findDraft(ctx, updateCommand.Actor, updateCommand.SurveyId); err != nil {
		return nil, err
	}
	questions, err := s.surveyRepo.ReorderQuestions(ctx, updateCommand.SurveyId, func(current []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
		idx := slices.IndexFunc(current, func(q *entities.SurveyQuestion) bool { return q.Id == updateCommand.QuestionId })
		if idx < 0 {
			return nil, common.NotFound("question not found")
		}
		q := current[idx]
		if updateCommand.Kind != nil {
			q.Kind = entities.QuestionKind(strings.ToLower(strings.TrimSpace(*updateCommand.Kind)))
		}
		if updateCommand.Title != nil {
			q.Title = strings.TrimSpace(*updateCommand.Title)
		}
		if updateCommand.Options != nil {
			q.Options = entities.NewSurveyQuestion(q.SurveyId, q.Kind, q.Title, updateCommand.Options, q.Required).Options
		}
		if updateCommand.Required != nil {
			q.Required = *updateCommand.Required
		}
		if err := q.Validate(); err != nil {
			return nil, common.InvalidInput(err.Error())
		}
		if updateCommand.OrderNum == nil || *updateCommand.OrderNum == q.OrderNum {
			return current, nil
		}
		return entities.MoveQuestion(current, q.Id, *updateCommand.OrderNum)
	})
	if err != nil {
		return nil, repoError(err, "survey")
	}
	return mapper.NewQuestionResults(questions), nil
}

func (s *SurveyService) DeleteQuestion(ctx context.Context, deleteCommand *command.DeleteQuestionCommand) ([]*common.QuestionResult, error) {
	if _, err := s.findDraft(ctx, deleteCommand.Actor, deleteCommand.SurveyId); err != nil {
		return nil, err
	}
	questions, err := s.surveyRepo.ReorderQuestions(ctx, deleteCommand.SurveyId, func(current []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
		next, err := entities.RemoveQuestion(current, deleteCommand.QuestionId)
		if err != nil {
			return nil, common.NotFound(err.Error())
		}
		return next, nil
	})
	if err != nil {
		return nil, repoError(err, "survey")
	}
	return mapper.NewQuestionResults(questions), nil
}

func (s *SurveyService) SubmitResponse(ctx context.Context, submitCommand *command.SubmitResponseCommand) (*common.ResponseResult, error) {
	survey, err := s.surveyRepo.FindById(ctx, submitCommand.SurveyId)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, common.NotFound("survey not found")
	}
	if survey.Status != entities.SurveyPublished {
		return nil, common.Conflict(entities.ErrSurveyNotPublished.Error())
	}

	responded, err := s.surveyRepo.HasResponded(ctx, survey.Id, submitCommand.UserId)
	if err != nil {
		return nil, err
	}
	if responded {
		return nil, common.Conflict("you have already answered this survey")
	}

	questions, err := s.surveyRepo.Questions(ctx, survey.Id)
	if err != nil {
		return nil, err
	}
	response := entities.NewSurveyResponse(survey.Id, submitCommand.UserId, submitCommand.Answers)
	if err := response.ValidateAgainst(questions); err != nil {
		return nil, common.InvalidInput(err.Error())
	}

	if err := s.surveyRepo.CreateResponse(ctx, response); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.Conflict("you have already answered this survey")
		}
		return nil, repoError(err, "survey response")
	}
	s.events.Publish(ctx, messaging.SubjectSurveySubmitted, map[string]any{
		"surveyId":   survey.Id,
		"responseId": response.Id,
		"userId":     submitCommand.UserId,
	})
	return mapper.NewResponseResult(response), nil
}

func (s *SurveyService) ListResponses(ctx context.Context, actor command.Actor, surveyId uuid.UUID, pageNum, size int) (*common.PageResult[*common.ResponseResult], error) {
	if _, err := s.findEditable(ctx, actor, surveyId); err != nil {
		return nil, err
	}
	page := repositories.NewPage(pageNum, size)
	responses, total, err := s.surveyRepo.ListResponses(ctx, surveyId, page)
	if err != nil {
		return nil, err
	}
	results := make([]*common.ResponseResult, 0, len(responses))
	for _, r := range responses {
		results = append(results, mapper.NewResponseResult(r))
	}
	return common.NewPageResult(results, total, page), nil
}

// Stats counts option picks per question. Rating questions also get the mean.
func (s *SurveyService) Stats(ctx context.Context, actor command.Actor, surveyId uuid.UUID) (*common.SurveyStats, error) {
	if _, err := s.findEditable(ctx, actor, surveyId); err != nil {
		return nil, err
	}
	questions, err := s.surveyRepo.Questions(ctx, surveyId)
	if err != nil {
		return nil, err
	}
	responses, err := s.surveyRepo.AllResponses(ctx, surveyId)
	if err != nil {
		return nil, err
	}
	return buildStats(surveyId, questions, responses), nil
}

func buildStats(surveyId uuid.UUID, questions []*entities.SurveyQuestion, responses []*entities.SurveyResponse) *common.SurveyStats {
	stats := &common.SurveyStats{
		SurveyId:  surveyId,
		Responses: len(responses),
		Questions: make([]*common.QuestionStats, 0, len(questions)),
	}
	byId := make(map[uuid.UUID]*common.QuestionStats, len(questions))
	ratingSums := make(map[uuid.UUID]int)
	for _, q := range questions {
		qs := &common.QuestionStats{
			QuestionId: q.Id,
			OrderNum:   q.OrderNum,
			Title:      q.Title,
			Kind:       string(q.Kind),
		}
		switch q.Kind {
		case entities.QuestionSingle, entities.QuestionMultiple:
			qs.OptionCounts = make(map[string]int, len(q.Options))
			for _, o := range q.Options {
				qs.OptionCounts[o] = 0
			}
		case entities.QuestionRating:
			qs.OptionCounts = make(map[string]int, 5)
			for i := 1; i <= 5; i++ {
				qs.OptionCounts[strconv.Itoa(i)] = 0
			}
		}
		byId[q.Id] = qs
		stats.Questions = append(stats.Questions, qs)
	}

	for _, r := range responses {
		for _, a := range r.Answers {
			qs, ok := byId[a.QuestionId]
			if !ok || len(a.Values) == 0 {
				continue
			}
			qs.Answered++
			if qs.OptionCounts == nil {
				continue
			}
			for _, v := range a.Values {
				if _, known := qs.OptionCounts[v]; known {
					qs.OptionCounts[v]++
				}
			}
			if qs.Kind == string(entities.QuestionRating) {
				if n, err := strconv.Atoi(a.Values[0]); err == nil {
					ratingSums[a.QuestionId] += n
				}
			}
		}
	}

	for _, qs := range stats.Questions {
		if qs.Kind == string(entities.QuestionRating) && qs.Answered > 0 {
			avg := float64(int(float64(ratingSums[qs.QuestionId])/float64(qs.Answered)*100+0.5)) / 100
			qs.Average = &avg
		}
	}
	return stats
}

func (s *SurveyService) findVisible(ctx context.Context, actor command.Actor, id uuid.UUID) (*entities.Survey, error) {
	survey, err := s.surveyRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil || (survey.Status == entities.SurveyDraft && !survey.CanEdit(actor.UserId, actor.IsAdmin)) {
		return nil, common.NotFound("survey not found")
	}
	return survey, nil
}

func (s *SurveyService) findEditable(ctx context.Context, actor command.Actor, id uuid.UUID) (*entities.Survey, error) {
	survey, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !survey.CanEdit(actor.UserId, actor.IsAdmin) {
		return nil, common.Forbidden("only the survey creator can change it")
	}
	return survey, nil
}

func (s *SurveyService) findDraft(ctx context.Context, actor command.Actor, id uuid.UUID) (*entities.Survey, error) {
	survey, err := s.findEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if survey.Status != entities.SurveyDraft {
		return nil, common.Conflict(entities.ErrSurveyNotDraft.Error())
	}
	return survey, nil
}

func newQuestion(surveyId uuid.UUID, in command.QuestionInput) (*entities.SurveyQuestion, error) {
	kind := entities.QuestionKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	q := entities.NewSurveyQuestion(surveyId, kind, in.Title, in.Options, in.Required)
	if err := q.Validate(); err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	return q, nil
}
