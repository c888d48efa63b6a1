package mapper

import (
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/domain/entities"
)

func NewSurveyResult(s *entities.Survey, questions []*entities.SurveyQuestion) *common.SurveyResult {
	out := &common.SurveyResult{
		Id:          s.Id,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if questions != nil {
		out.Questions = NewQuestionResults(questions)
	}
	return out
}

func NewQuestionResults(questions []*entities.SurveyQuestion) []*common.QuestionResult {
	out := make([]*common.QuestionResult, 0, len(questions))
	for _, q := range questions {
		options := q.Options
		if options == nil {
			options = make([]string, 0)
		}
		out = append(out, &common.QuestionResult{
			Id:       q.Id,
			OrderNum: q.OrderNum,
			Kind:     string(q.Kind),
			Title:    q.Title,
			Options:  options,
			Required: q.Required,
		})
	}
	return out
}

func NewResponseResult(r *entities.SurveyResponse) *common.ResponseResult {
	answers := make([]common.AnswerResult, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, common.AnswerResult{QuestionId: a.QuestionId, Values: a.Values})
	}
	return &common.ResponseResult{
		Id:        r.Id,
		SurveyId:  r.SurveyId,
		UserId:    r.UserId,
		Answers:   answers,
		CreatedAt: r.CreatedAt,
	}
}
