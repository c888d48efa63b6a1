package command

import (
	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/domain/entities"
)

type Actor struct {
	UserId  uuid.UUID
	IsAdmin bool
}

type QuestionInput struct {
	Kind     string   `json:"kind"`
	Title    string   `json:"title"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
	// OrderNum is the 1-based insert position; 0 appends.
	OrderNum int `json:"orderNum"`
}

type CreateSurveyCommand struct {
	Actor       Actor
	Title       string
	Description string
	Questions   []QuestionInput
}

type UpdateSurveyCommand struct {
	Actor       Actor
	SurveyId    uuid.UUID
	Title       *string
	Description *string
	Status      *string
}

type AddQuestionCommand struct {
	Actor    Actor
	SurveyId uuid.UUID
	Question QuestionInput
}

type UpdateQuestionCommand struct {
	Actor      Actor
	SurveyId   uuid.UUID
	QuestionId uuid.UUID
	Kind       *string
	Title      *string
	Options    []string
	Required   *bool
	OrderNum   *int
}

type DeleteQuestionCommand struct {
	Actor      Actor
	SurveyId   uuid.UUID
	QuestionId uuid.UUID
}

type SubmitResponseCommand struct {
	UserId   uuid.UUID
	SurveyId uuid.UUID
	Answers  []entities.Answer
}
