package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
)

type createSurveyRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Questions   []command.QuestionInput `json:"questions"`
}

type updateSurveyRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type updateQuestionRequest struct {
	Kind     *string  `json:"kind"`
	Title    *string  `json:"title"`
	Options  []string `json:"options"`
	Required *bool    `json:"required"`
	OrderNum *int     `json:"orderNum"`
}

type submitResponseRequest struct {
	Answers []entities.Answer `json:"answers"`
}

func (s *Server) handleCreateSurvey(c echo.Context) error {
	var req createSurveyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Surveys.CreateSurvey(c.Request().Context(), &command.CreateSurveyCommand{
		Actor:       actor(c),
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleListSurveys(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	a := actor(c)
	res, err := s.services.Surveys.ListSurveys(c.Request().Context(), query.ListSurveysQuery{
		UserId:  a.UserId,
		IsAdmin: a.IsAdmin,
		Status:  c.QueryParam("status"),
		Keyword: c.QueryParam("keyword"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleGetSurvey(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Surveys.GetSurvey(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleUpdateSurvey(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateSurveyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Surveys.UpdateSurvey(c.Request().Context(), &command.UpdateSurveyCommand{
		Actor:       actor(c),
		SurveyId:    id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleDeleteSurvey(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.services.Surveys.DeleteSurvey(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return OK(c, nil)
}

func (s *Server) handleAddQuestion(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req command.QuestionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Surveys.AddQuestion(c.Request().Context(), &command.AddQuestionCommand{
		Actor:    actor(c),
		SurveyId: id,
		Question: req,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleUpdateQuestion(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	qid, err := pathID(c, "qid")
	if err != nil {
		return err
	}
	var req updateQuestionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Surveys.UpdateQuestion(c.Request().Context(), &command.UpdateQuestionCommand{
		Actor:      actor(c),
		SurveyId:   id,
		QuestionId: qid,
		Kind:       req.Kind,
		Title:      req.Title,
		Options:    req.Options,
		Required:   req.Required,
		OrderNum:   req.OrderNum,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleDeleteQuestion(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	qid, err := pathID(c, "qid")
	if err != nil {
		return err
	}
	res, err := s.services.Surveys.DeleteQuestion(c.Request().Context(), &command.DeleteQuestionCommand{
		Actor:      actor(c),
		SurveyId:   id,
		QuestionId: qid,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleSubmitResponse(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req submitResponseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Surveys.SubmitResponse(c.Request().Context(), &command.SubmitResponseCommand{
		UserId:   principal(c).UserId,
		SurveyId: id,
		Answers:  req.Answers,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleListResponses(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	res, err := s.services.Surveys.ListResponses(c.Request().Context(), actor(c), id, page, size)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleSurveyStats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Surveys.Stats(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return OK(c, res)
}
