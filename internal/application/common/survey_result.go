package common

import (
	"time"

	"github.com/google/uuid"
)

type QuestionResult struct {
	Id       uuid.UUID `json:"id"`
	OrderNum int       `json:"orderNum"`
	Kind     string    `json:"kind"`
	Title    string    `json:"title"`
	Options  []string  `json:"options"`
	Required bool      `json:"required"`
}

type SurveyResult struct {
	Id          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	CreatedBy   uuid.UUID         `json:"createdBy"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Questions   []*QuestionResult `json:"questions,omitempty"`
}

type AnswerResult struct {
	QuestionId uuid.UUID `json:"questionId"`
	Values     []string  `json:"values"`
}

type ResponseResult struct {
	Id        uuid.UUID      `json:"id"`
	SurveyId  uuid.UUID      `json:"surveyId"`
	UserId    uuid.UUID      `json:"userId"`
	Answers   []AnswerResult `json:"answers"`
	CreatedAt time.Time      `json:"createdAt"`
}

type QuestionStats struct {
	QuestionId   uuid.UUID      `json:"questionId"`
	OrderNum     int            `json:"orderNum"`
	Title        string         `json:"title"`
	Kind         string         `json:"kind"`
	Answered     int            `json:"answered"`
	OptionCounts map[string]int `json:"optionCounts,omitempty"`
	Average      *float64       `json:"average,omitempty"`
}

type SurveyStats struct {
	SurveyId  uuid.UUID        `json:"surveyId"`
	Responses int              `json:"responses"`
	Questions []*QuestionStats `json:"questions"`
}
