package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/infrastructure/db/gormstore"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
)

func questionTitles(qs []*common.QuestionResult) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Title)
	}
	return out
}

func questionOrders(qs []*common.QuestionResult) []int {
	out := make([]int, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.OrderNum)
	}
	return out
}

func TestSurveyService_Questions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewSurveyService(gormstore.NewSurveyRepository(db), &fakePublisher{}, zap.NewNop())
	owner := command.Actor{UserId: uuid.New()}
	other := command.Actor{UserId: uuid.New()}

	survey, err := svc.CreateSurvey(ctx, &command.CreateSurveyCommand{
		Actor: owner,
		Title: "Garden habits",
		Questions: []command.QuestionInput{
			{Kind: "single", Title: "Do you garden?", Options: []string{"yes", "no"}, Required: true},
			{Kind: "text", Title: "Favourite plant"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", survey.Status)
	assert.Equal(t, []int{1, 2}, questionOrders(survey.Questions))

	_, err = svc.CreateSurvey(ctx, &command.CreateSurveyCommand{Actor: owner, Title: " "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	t.Run("append and insert", func(t *testing.T) {
		qs, err := svc.AddQuestion(ctx, &command.AddQuestionCommand{
			Actor: owner, SurveyId: survey.Id,
			Question: command.QuestionInput{Kind: "rating", Title: "Rate your garden"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Do you garden?", "Favourite plant", "Rate your garden"}, questionTitles(qs))

		qs, err = svc.AddQuestion(ctx, &command.AddQuestionCommand{
			Actor: owner, SurveyId: survey.Id,
			Question: command.QuestionInput{Kind: "multiple", Title: "Tools", Options: []string{"spade", "hoe", "rake"}, OrderNum: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Tools", "Do you garden?", "Favourite plant", "Rate your garden"}, questionTitles(qs))
		assert.Equal(t, []int{1, 2, 3, 4}, questionOrders(qs))
	})

	t.Run("invalid question", func(t *testing.T) {
		_, err := svc.AddQuestion(ctx, &command.AddQuestionCommand{
			Actor: owner, SurveyId: survey.Id,
			Question: command.QuestionInput{Kind: "single", Title: "Only one", Options: []string{"a"}},
		})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("only the creator edits", func(t *testing.T) {
		_, err := svc.AddQuestion(ctx, &command.AddQuestionCommand{
			Actor: other, SurveyId: survey.Id,
			Question: command.QuestionInput{Kind: "text", Title: "Sneaky"},
		})
		// drafts are invisible to others
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("move keeps numbering contiguous", func(t *testing.T) {
		current, err := svc.GetSurvey(ctx, owner, survey.Id)
		require.NoError(t, err)
		tools := current.Questions[0]

		qs, err := svc.UpdateQuestion(ctx, &command.UpdateQuestionCommand{
			Actor: owner, SurveyId: survey.Id, QuestionId: tools.Id, OrderNum: ptr(3), Title: ptr("Garden tools"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Do you garden?", "Favourite plant", "Garden tools", "Rate your garden"}, questionTitles(qs))
		assert.Equal(t, []int{1, 2, 3, 4}, questionOrders(qs))

		_, err = svc.UpdateQuestion(ctx, &command.UpdateQuestionCommand{
			Actor: owner, SurveyId: survey.Id, QuestionId: uuid.New(), Title: ptr("Ghost"),
		})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("delete compacts", func(t *testing.T) {
		current, err := svc.GetSurvey(ctx, owner, survey.Id)
		require.NoError(t, err)

		qs, err := svc.DeleteQuestion(ctx, &command.DeleteQuestionCommand{
			Actor: owner, SurveyId: survey.Id, QuestionId: current.Questions[1].Id,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Do you garden?", "Garden tools", "Rate your garden"}, questionTitles(qs))
		assert.Equal(t, []int{1, 2, 3}, questionOrders(qs))
	})

	t.Run("published surveys are frozen", func(t *testing.T) {
		updated, err := svc.UpdateSurvey(ctx, &command.UpdateSurveyCommand{Actor: owner, SurveyId: survey.Id, Status: ptr("published")})
		require.NoError(t, err)
		assert.Equal(t, "published", updated.Status)

		_, err = svc.AddQuestion(ctx, &command.AddQuestionCommand{
			Actor: owner, SurveyId: survey.Id,
			Question: command.QuestionInput{Kind: "text", Title: "Late addition"},
		})
		assert.ErrorIs(t, err, common.ErrConflict)

		_, err = svc.UpdateSurvey(ctx, &command.UpdateSurveyCommand{Actor: owner, SurveyId: survey.Id, Status: ptr("draft")})
		assert.ErrorIs(t, err, common.ErrConflict)

		_, err = svc.UpdateSurvey(ctx, &command.UpdateSurveyCommand{Actor: other, SurveyId: survey.Id, Title: ptr("Mine")})
		assert.ErrorIs(t, err, common.ErrForbidden)
	})
}

func TestSurveyService_Responses(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	events := &fakePublisher{}
	svc := NewSurveyService(gormstore.NewSurveyRepository(db), events, zap.NewNop())
	owner := command.Actor{UserId: uuid.New()}
	admin := command.Actor{UserId: uuid.New(), IsAdmin: true}

	survey, err := svc.CreateSurvey(ctx, &command.CreateSurveyCommand{
		Actor: owner,
		Title: "Watering",
		Questions: []command.QuestionInput{
			{Kind: "single", Title: "How often?", Options: []string{"daily", "weekly"}, Required: true},
			{Kind: "rating", Title: "Confidence"},
			{Kind: "multiple", Title: "Tools", Options: []string{"can", "hose"}},
		},
	})
	require.NoError(t, err)
	single, rating, multiple := survey.Questions[0].Id, survey.Questions[1].Id, survey.Questions[2].Id

	submit := func(user uuid.UUID, answers ...entities.Answer) error {
		_, err := svc.SubmitResponse(ctx, &command.SubmitResponseCommand{UserId: user, SurveyId: survey.Id, Answers: answers})
		return err
	}

	alice, bob := uuid.New(), uuid.New()
	assert.ErrorIs(t, submit(alice, entities.Answer{QuestionId: single, Values: []string{"daily"}}), common.ErrConflict)

	_, err = svc.UpdateSurvey(ctx, &command.UpdateSurveyCommand{Actor: owner, SurveyId: survey.Id, Status: ptr("published")})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		assert.ErrorIs(t, submit(alice), common.ErrInvalidInput)
		assert.ErrorIs(t, submit(alice, entities.Answer{QuestionId: single, Values: []string{"hourly"}}), common.ErrInvalidInput)
		assert.ErrorIs(t, submit(alice,
			entities.Answer{QuestionId: single, Values: []string{"daily"}},
			entities.Answer{QuestionId: rating, Values: []string{"6"}},
		), common.ErrInvalidInput)
		assert.ErrorIs(t, submit(alice,
			entities.Answer{QuestionId: single, Values: []string{"daily", "weekly"}},
		), common.ErrInvalidInput)
	})

	require.NoError(t, submit(alice,
		entities.Answer{QuestionId: single, Values: []string{"daily"}},
		entities.Answer{QuestionId: rating, Values: []string{"4"}},
		entities.Answer{QuestionId: multiple, Values: []string{"can", "hose"}},
	))
	require.NoError(t, submit(bob,
		entities.Answer{QuestionId: single, Values: []string{"daily"}},
		entities.Answer{QuestionId: rating, Values: []string{"5"}},
	))
	assert.ErrorIs(t, submit(bob, entities.Answer{QuestionId: single, Values: []string{"weekly"}}), common.ErrConflict)
	assert.Equal(t, 2, countSubject(events, messaging.SubjectSurveySubmitted))

	t.Run("responses are for the creator", func(t *testing.T) {
		_, err := svc.ListResponses(ctx, command.Actor{UserId: alice}, survey.Id, 1, 10)
		assert.ErrorIs(t, err, common.ErrForbidden)

		page, err := svc.ListResponses(ctx, admin, survey.Id, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(ctx, owner, survey.Id)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Responses)
		require.Len(t, stats.Questions, 3)

		assert.Equal(t, map[string]int{"daily": 2, "weekly": 0}, stats.Questions[0].OptionCounts)
		assert.Equal(t, 2, stats.Questions[1].Answered)
		require.NotNil(t, stats.Questions[1].Average)
		assert.InDelta(t, 4.5, *stats.Questions[1].Average, 1e-9)
		assert.Equal(t, 1, stats.Questions[1].OptionCounts["5"])
		assert.Equal(t, map[string]int{"can": 1, "hose": 1}, stats.Questions[2].OptionCounts)
		assert.Equal(t, 1, stats.Questions[2].Answered)
	})

	t.Run("listing respects visibility", func(t *testing.T) {
		_, err := svc.CreateSurvey(ctx, &command.CreateSurveyCommand{Actor: owner, Title: "Unfinished"})
		require.NoError(t, err)

		visible, err := svc.ListSurveys(ctx, query.ListSurveysQuery{UserId: alice})
		require.NoError(t, err)
		assert.Equal(t, int64(1), visible.Total)

		all, err := svc.ListSurveys(ctx, query.ListSurveysQuery{UserId: owner.UserId})
		require.NoError(t, err)
		assert.Equal(t, int64(2), all.Total)

		drafts, err := svc.ListSurveys(ctx, query.ListSurveysQuery{IsAdmin: true, Status: "draft"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), drafts.Total)

		_, err = svc.ListSurveys(ctx, query.ListSurveysQuery{Status: "archived"})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteSurvey(ctx, command.Actor{UserId: alice}, survey.Id), common.ErrForbidden)
		require.NoError(t, svc.DeleteSurvey(ctx, owner, survey.Id))
		_, err := svc.GetSurvey(ctx, owner, survey.Id)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func countSubject(p *fakePublisher, subject string) int {
	n := 0
	for _, s := range p.subjects() {
		if s == subject {
			n++
		}
	}
	return n
}
