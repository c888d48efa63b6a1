package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questions(n int) []*SurveyQuestion {
	surveyId := uuid.New()
	qs := make([]*SurveyQuestion, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, NewSurveyQuestion(surveyId, QuestionText, string(rune('A'+i)), nil, false))
	}
	Renumber(qs)
	return qs
}

func titles(qs []*SurveyQuestion) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Title)
	}
	return out
}

func orderNums(qs []*SurveyQuestion) []int {
	out := make([]int, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.OrderNum)
	}
	return out
}

func TestSurvey_TransitionTo(t *testing.T) {
	tests := []struct {
		from, to SurveyStatus
		ok       bool
	}{
		{SurveyDraft, SurveyPublished, true},
		{SurveyDraft, SurveyClosed, true},
		{SurveyPublished, SurveyClosed, true},
		{SurveyPublished, SurveyPublished, true},
		{SurveyPublished, SurveyDraft, false},
		{SurveyClosed, SurveyPublished, false},
		{SurveyClosed, SurveyDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			s := NewSurvey(uuid.New(), "Balcony", "")
			s.Status = tt.from
			err := s.TransitionTo(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, s.Status)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.from, s.Status)
			}
		})
	}
}

func TestParseSurveyStatus(t *testing.T) {
	st, err := ParseSurveyStatus(" Published ")
	require.NoError(t, err)
	assert.Equal(t, SurveyPublished, st)

	_, err = ParseSurveyStatus("archived")
	assert.Error(t, err)
}

func TestSurveyQuestion_Validate(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, NewSurveyQuestion(id, QuestionSingle, "Pick", []string{"a", " b "}, true).Validate())
	assert.Error(t, NewSurveyQuestion(id, QuestionSingle, "Pick", []string{"a"}, true).Validate())
	assert.Error(t, NewSurveyQuestion(id, QuestionMultiple, "Pick", []string{"a", "a"}, true).Validate())
	assert.Error(t, NewSurveyQuestion(id, QuestionRating, "Rate", []string{"1"}, true).Validate())
	assert.Error(t, NewSurveyQuestion(id, QuestionKind("matrix"), "Grid", nil, true).Validate())
	assert.Error(t, NewSurveyQuestion(id, QuestionText, "  ", nil, true).Validate())
}

func TestInsertQuestion(t *testing.T) {
	qs := questions(3)
	extra := NewSurveyQuestion(qs[0].SurveyId, QuestionText, "X", nil, false)

	out := InsertQuestion(qs, extra, 2)
	assert.Equal(t, []string{"A", "X", "B", "C"}, titles(out))
	assert.Equal(t, []int{1, 2, 3, 4}, orderNums(out))

	appended := InsertQuestion(questions(2), NewSurveyQuestion(uuid.New(), QuestionText, "Z", nil, false), 0)
	assert.Equal(t, []string{"A", "B", "Z"}, titles(appended))
}

func TestMoveQuestion(t *testing.T) {
	qs := questions(4)

	out, err := MoveQuestion(qs, qs[3].Id, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "A", "B", "C"}, titles(out))
	assert.Equal(t, []int{1, 2, 3, 4}, orderNums(out))

	out, err = MoveQuestion(questions(3), uuid.New(), 1)
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestMoveQuestion_ClampsPosition(t *testing.T) {
	qs := questions(3)

	out, err := MoveQuestion(qs, qs[0].Id, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, titles(out))
}

func TestRemoveQuestion(t *testing.T) {
	qs := questions(3)

	out, err := RemoveQuestion(qs, qs[1].Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, titles(out))
	assert.Equal(t, []int{1, 2}, orderNums(out))
}

func TestSurveyResponse_ValidateAgainst(t *testing.T) {
	surveyId := uuid.New()
	single := NewSurveyQuestion(surveyId, QuestionSingle, "Sun?", []string{"yes", "no"}, true)
	multi := NewSurveyQuestion(surveyId, QuestionMultiple, "Which?", []string{"herbs", "flowers", "trees"}, false)
	rating := NewSurveyQuestion(surveyId, QuestionRating, "Rate", nil, true)
	text := NewSurveyQuestion(surveyId, QuestionText, "Notes", nil, false)
	qs := []*SurveyQuestion{single, multi, rating, text}
	Renumber(qs)

	tests := []struct {
		name    string
		answers []Answer
		wantErr bool
	}{
		{"valid", []Answer{
			{QuestionId: single.Id, Values: []string{"yes"}},
			{QuestionId: multi.Id, Values: []string{"herbs", "trees"}},
			{QuestionId: rating.Id, Values: []string{"4"}},
		}, false},
		{"missing required", []Answer{{QuestionId: single.Id, Values: []string{"no"}}}, true},
		{"not an option", []Answer{
			{QuestionId: single.Id, Values: []string{"maybe"}},
			{QuestionId: rating.Id, Values: []string{"3"}},
		}, true},
		{"rating out of range", []Answer{
			{QuestionId: single.Id, Values: []string{"yes"}},
			{QuestionId: rating.Id, Values: []string{"6"}},
		}, true},
		{"duplicate selection", []Answer{
			{QuestionId: single.Id, Values: []string{"yes"}},
			{QuestionId: multi.Id, Values: []string{"herbs", "herbs"}},
			{QuestionId: rating.Id, Values: []string{"2"}},
		}, true},
		{"unknown question", []Answer{
			{QuestionId: uuid.New(), Values: []string{"x"}},
		}, true},
		{"answered twice", []Answer{
			{QuestionId: single.Id, Values: []string{"yes"}},
			{QuestionId: single.Id, Values: []string{"no"}},
			{QuestionId: rating.Id, Values: []string{"1"}},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSurveyResponse(surveyId, uuid.New(), tt.answers).ValidateAgainst(qs)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
