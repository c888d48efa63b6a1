package gormstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/geo"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Options{
		Driver:   DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func createUser(t *testing.T, repo repositories.UserRepository, username, email string) *entities.User {
	t.Helper()
	vu, err := entities.NewValidatedUser(entities.NewUser(username, email, "secret123"))
	require.NoError(t, err)
	u, err := repo.Create(context.Background(), vu)
	require.NoError(t, err)
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	alice := createUser(t, repo, "alice", "Alice@Example.com")
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.NotEqual(t, "secret123", alice.Password)
	assert.NoError(t, alice.CheckPassword("secret123"))

	// users without email do not collide on the unique index
	createUser(t, repo, "bob", "")
	createUser(t, repo, "carol", "")

	t.Run("duplicate username", func(t *testing.T) {
		vu, err := entities.NewValidatedUser(entities.NewUser("alice", "", "secret123"))
		require.NoError(t, err)
		_, err = repo.Create(ctx, vu)
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("find by credentials", func(t *testing.T) {
		u, err := repo.FindByCredentials(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, alice.Id, u.Id)

		u, err = repo.FindByCredentials(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, alice.Id, u.Id)

		u, err = repo.FindByCredentials(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("update profile", func(t *testing.T) {
		nick := "Ally"
		require.NoError(t, alice.UpdateProfile(entities.ProfilePatch{Nickname: &nick}))
		vu, err := entities.NewValidatedUser(alice)
		require.NoError(t, err)
		u, err := repo.Update(ctx, vu)
		require.NoError(t, err)
		assert.Equal(t, "Ally", u.Nickname)
	})

	t.Run("list with keyword", func(t *testing.T) {
		users, total, err := repo.List(ctx, "", repositories.NewPage(1, 2))
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, users, 2)

		users, total, err = repo.List(ctx, "ALL", repositories.NewPage(1, 10))
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, users, 1)
		assert.Equal(t, "alice", users[0].Username)
	})

	t.Run("update password of missing user", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "x"), repositories.ErrNotFound)
	})
}

func TestPlantAndGardenRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	plants := NewPlantRepository(db)
	gardens := NewGardenRepository(db)
	owner := uuid.New()

	garden := entities.NewGarden(owner, "Community garden", 37.77, -122.42)
	_, err := gardens.Create(ctx, garden)
	require.NoError(t, err)

	private := entities.NewGarden(owner, "Backyard", 37.771, -122.421)
	private.IsPublic = false
	_, err = gardens.Create(ctx, private)
	require.NoError(t, err)

	rose := entities.NewPlant(owner, "Rose", 37.7749, -122.4194)
	rose.GardenId = &garden.Id
	rose.SetTags([]string{"Red", "red", " flower "})
	created, err := plants.Create(ctx, rose)
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "flower"}, created.Tags)

	g, err := gardens.FindById(ctx, garden.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, g.PlantCount)

	t.Run("moving a plant between gardens adjusts counts", func(t *testing.T) {
		other := entities.NewGarden(owner, "Roof", 37.78, -122.41)
		_, err := gardens.Create(ctx, other)
		require.NoError(t, err)

		rose.GardenId = &other.Id
		_, err = plants.Update(ctx, rose)
		require.NoError(t, err)

		g, _ := gardens.FindById(ctx, garden.Id)
		o, _ := gardens.FindById(ctx, other.Id)
		assert.EqualValues(t, 0, g.PlantCount)
		assert.EqualValues(t, 1, o.PlantCount)

		require.NoError(t, gardens.Delete(ctx, other.Id))
		p, err := plants.FindById(ctx, rose.Id)
		require.NoError(t, err)
		assert.Nil(t, p.GardenId)
		rose.GardenId = nil
	})

	t.Run("in box", func(t *testing.T) {
		far := entities.NewPlant(owner, "Far fern", 40.0, -120.0)
		_, err := plants.Create(ctx, far)
		require.NoError(t, err)

		box := geo.BoundingBox(geo.Point{Lat: 37.7749, Lng: -122.4194}, 5)
		found, err := plants.InBox(ctx, box, 100)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, rose.Id, found[0].Id)

		gs, err := gardens.InBox(ctx, box, 100)
		require.NoError(t, err)
		require.Len(t, gs, 1)
		assert.Equal(t, garden.Id, gs[0].Id)
	})

	t.Run("in box across the antimeridian", func(t *testing.T) {
		east := entities.NewPlant(owner, "East", 0, 179.95)
		west := entities.NewPlant(owner, "West", 0, -179.95)
		_, err := plants.Create(ctx, east)
		require.NoError(t, err)
		_, err = plants.Create(ctx, west)
		require.NoError(t, err)

		found, err := plants.InBox(ctx, geo.BoundingBox(geo.Point{Lat: 0, Lng: 180}, 20), 100)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("list by owner paginates", func(t *testing.T) {
		list, total, err := plants.ListByOwner(ctx, owner, repositories.NewPage(1, 2))
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, list, 2)

		list, _, err = plants.ListByOwner(ctx, owner, repositories.NewPage(3, 2))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete missing plant", func(t *testing.T) {
		assert.ErrorIs(t, plants.Delete(ctx, uuid.New()), repositories.ErrNotFound)
	})
}

func TestNearestOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	plants := NewPlantRepository(db)
	gardens := NewGardenRepository(db)
	owner := uuid.New()
	center := geo.Point{Lat: 52.52, Lng: 13.405}

	// nearest gets the largest id so id order and distance order disagree
	plantIds := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	sort.Slice(plantIds, func(i, j int) bool { return plantIds[i].String() > plantIds[j].String() })
	for i, lat := range []float64{52.521, 52.53, 52.55} {
		p := entities.NewPlant(owner, fmt.Sprintf("Linden %d", i), lat, 13.405)
		p.Id = plantIds[i]
		_, err := plants.Create(ctx, p)
		require.NoError(t, err)
	}

	box := geo.BoundingBox(center, 10)
	found, err := plants.Nearest(ctx, box, center, 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, plantIds[0], found[0].Id)

	found, err = plants.Nearest(ctx, box, center, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, plantIds[:2], []uuid.UUID{found[0].Id, found[1].Id})

	t.Run("wraps the antimeridian", func(t *testing.T) {
		dateline := geo.Point{Lat: 0, Lng: 179.99}
		far := entities.NewPlant(owner, "Far side", 0, 179.9)
		near := entities.NewPlant(owner, "Near side", 0, -179.99)
		_, err := plants.Create(ctx, far)
		require.NoError(t, err)
		_, err = plants.Create(ctx, near)
		require.NoError(t, err)

		found, err := plants.Nearest(ctx, geo.BoundingBox(dateline, 20), dateline, 1)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, near.Id, found[0].Id)
	})

	t.Run("gardens skip private rows", func(t *testing.T) {
		hidden := entities.NewGarden(owner, "Yard", 52.5201, 13.405)
		hidden.IsPublic = false
		_, err := gardens.Create(ctx, hidden)
		require.NoError(t, err)
		farther := entities.NewGarden(owner, "Park", 52.54, 13.405)
		_, err = gardens.Create(ctx, farther)
		require.NoError(t, err)
		nearer := entities.NewGarden(owner, "Plot", 52.525, 13.405)
		_, err = gardens.Create(ctx, nearer)
		require.NoError(t, err)

		gs, err := gardens.Nearest(ctx, box, center, 10)
		require.NoError(t, err)
		require.Len(t, gs, 2)
		assert.Equal(t, nearer.Id, gs[0].Id)
		assert.Equal(t, farther.Id, gs[1].Id)
	})
}

func TestLikeRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	plants := NewPlantRepository(db)
	likes := NewLikeRepository(db)
	user := uuid.New()

	plant := entities.NewPlant(uuid.New(), "Oak", 10, 10)
	_, err := plants.Create(ctx, plant)
	require.NoError(t, err)

	state, err := likes.Like(ctx, user, entities.LikeTargetPlant, plant.Id)
	require.NoError(t, err)
	assert.Equal(t, entities.LikeState{Liked: true, LikeCount: 1}, state)

	state, err = likes.Like(ctx, user, entities.LikeTargetPlant, plant.Id)
	require.NoError(t, err)
	assert.Equal(t, entities.LikeState{Liked: true, LikeCount: 1}, state, "liking twice is a no-op")

	liked, err := likes.LikedAmong(ctx, user, entities.LikeTargetPlant, []uuid.UUID{plant.Id, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{plant.Id: true}, liked)

	page, total, err := plants.ListLikedBy(ctx, user, repositories.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, page, 1)

	state, err = likes.Unlike(ctx, user, entities.LikeTargetPlant, plant.Id)
	require.NoError(t, err)
	assert.Equal(t, entities.LikeState{Liked: false, LikeCount: 0}, state)

	state, err = likes.Unlike(ctx, user, entities.LikeTargetPlant, plant.Id)
	require.NoError(t, err)
	assert.Equal(t, entities.LikeState{Liked: false, LikeCount: 0}, state, "count never goes negative")

	_, err = likes.Like(ctx, user, entities.LikeTargetGarden, uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSurveyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSurveyRepository(newTestDB(t))
	creator := uuid.New()

	survey := entities.NewSurvey(creator, "Garden habits", "")
	q1 := entities.NewSurveyQuestion(survey.Id, entities.QuestionRating, "How green?", nil, true)
	q2 := entities.NewSurveyQuestion(survey.Id, entities.QuestionText, "Why?", nil, false)
	qs := []*entities.SurveyQuestion{q1, q2}
	entities.Renumber(qs)
	require.NoError(t, repo.Create(ctx, survey, qs))

	t.Run("insert and move keep order contiguous", func(t *testing.T) {
		q3 := entities.NewSurveyQuestion(survey.Id, entities.QuestionSingle, "Favourite?", []string{"a", "b"}, false)
		out, err := repo.ReorderQuestions(ctx, survey.Id, func(cur []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
			return entities.InsertQuestion(cur, q3, 1), nil
		})
		require.NoError(t, err)
		require.Len(t, out, 3)

		stored, err := repo.Questions(ctx, survey.Id)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, []uuid.UUID{q3.Id, q1.Id, q2.Id}, ids(stored))
		assert.Equal(t, []int{1, 2, 3}, orders(stored))
		assert.Equal(t, []string{"a", "b"}, stored[0].Options)

		_, err = repo.ReorderQuestions(ctx, survey.Id, func(cur []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
			return entities.RemoveQuestion(cur, q1.Id)
		})
		require.NoError(t, err)
		stored, err = repo.Questions(ctx, survey.Id)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{q3.Id, q2.Id}, ids(stored))
		assert.Equal(t, []int{1, 2}, orders(stored))
	})

	t.Run("reorder of a missing survey", func(t *testing.T) {
		_, err := repo.ReorderQuestions(ctx, uuid.New(), func(cur []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
			return cur, nil
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("reorder refuses a published survey", func(t *testing.T) {
		published := entities.NewSurvey(creator, "Closed", "")
		require.NoError(t, repo.Create(ctx, published, nil))
		published.Status = entities.SurveyPublished
		require.NoError(t, repo.Update(ctx, published))

		called := false
		_, err := repo.ReorderQuestions(ctx, published.Id, func(cur []*entities.SurveyQuestion) ([]*entities.SurveyQuestion, error) {
			called = true
			return cur, nil
		})
		assert.ErrorIs(t, err, entities.ErrSurveyNotDraft)
		assert.False(t, called)
		require.NoError(t, repo.Delete(ctx, published.Id))
	})

	t.Run("one response per user", func(t *testing.T) {
		user := uuid.New()
		resp := entities.NewSurveyResponse(survey.Id, user, []entities.Answer{{QuestionId: q2.Id, Values: []string{"because"}}})
		require.NoError(t, repo.CreateResponse(ctx, resp))

		again := entities.NewSurveyResponse(survey.Id, user, nil)
		assert.ErrorIs(t, repo.CreateResponse(ctx, again), repositories.ErrDuplicate)

		ok, err := repo.HasResponded(ctx, survey.Id, user)
		require.NoError(t, err)
		assert.True(t, ok)

		all, err := repo.AllResponses(ctx, survey.Id)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, []string{"because"}, all[0].Answers[0].Values)
	})

	t.Run("list hides other users' drafts", func(t *testing.T) {
		other := uuid.New()
		list, total, err := repo.List(ctx, repositories.SurveyFilter{VisibleTo: &other}, repositories.NewPage(1, 10))
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, list)

		list, total, err = repo.List(ctx, repositories.SurveyFilter{VisibleTo: &creator}, repositories.NewPage(1, 10))
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, list, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, survey.Id))
		qs, err := repo.Questions(ctx, survey.Id)
		require.NoError(t, err)
		assert.Empty(t, qs)
		assert.ErrorIs(t, repo.Delete(ctx, survey.Id), repositories.ErrNotFound)
	})
}

func TestWikiRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWikiRepository(newTestDB(t))

	entries := []*entities.WikiEntry{
		{Name: "Snake Plant", ScientificName: "Dracaena trifasciata", CareLevel: "low", Light: []string{"low-light", "partial-shade"}, PlantType: "foliage", Location: "indoor", Size: "medium"},
		{Name: "Lavender", ScientificName: "Lavandula angustifolia", CareLevel: "medium", Light: []string{"full-sun"}, PlantType: "flowering", Location: "outdoor", Size: "small"},
		{Name: "Aloe", ScientificName: "Aloe vera", CareLevel: "low", Light: []string{"full-sun"}, PlantType: "succulent", Location: "both", Size: "small"},
	}
	n, err := repo.Upsert(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// a second upsert with the same scientific name updates in place
	_, err = repo.Upsert(ctx, []*entities.WikiEntry{{Name: "Aloe Vera", ScientificName: "Aloe vera", CareLevel: "low", Location: "both"}})
	require.NoError(t, err)

	all, total, err := repo.Search(ctx, entities.WikiFilter{}, repositories.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"Aloe Vera", "Lavender", "Snake Plant"}, names(all))

	indoor, _, err := repo.Search(ctx, entities.WikiFilter{Location: "Indoor", CareLevel: "any"}, repositories.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"Aloe Vera", "Snake Plant"}, names(indoor))

	sunny, _, err := repo.Search(ctx, entities.WikiFilter{Light: "full-sun", Keyword: "lav"}, repositories.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lavender"}, names(sunny))

	second, total, err := repo.Search(ctx, entities.WikiFilter{}, repositories.NewPage(2, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"Snake Plant"}, names(second))

	found, err := repo.FindById(ctx, all[0].Id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Aloe vera", found.ScientificName)
}

func TestIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository(newTestDB(t))

	missing, err := repo.FindByKey(ctx, "u1:k1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := entities.NewIdempotencyRecord("u1:k1", `{"name":"rose"}`)
	rec.SetResponse(`{"id":"1"}`, 200)
	_, err = repo.Create(ctx, rec)
	require.NoError(t, err)

	got, err := repo.FindByKey(ctx, "u1:k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"id":"1"}`, got.Response)
	assert.Equal(t, 200, got.StatusCode)

	_, err = repo.Create(ctx, entities.NewIdempotencyRecord("u1:k1", ""))
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	t.Run("pending claim completes", func(t *testing.T) {
		_, err := repo.Create(ctx, entities.NewIdempotencyRecord("u1:k2", `{}`))
		require.NoError(t, err)
		got, err := repo.FindByKey(ctx, "u1:k2")
		require.NoError(t, err)
		assert.True(t, got.Pending())

		require.NoError(t, repo.Complete(ctx, "u1:k2", `{"id":"2"}`, 200))
		got, err = repo.FindByKey(ctx, "u1:k2")
		require.NoError(t, err)
		assert.False(t, got.Pending())
		assert.Equal(t, `{"id":"2"}`, got.Response)

		assert.ErrorIs(t, repo.Complete(ctx, "u1:nope", `{}`, 200), repositories.ErrNotFound)
	})

	t.Run("delete releases the key", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "u1:k2"))
		got, err := repo.FindByKey(ctx, "u1:k2")
		require.NoError(t, err)
		assert.Nil(t, got)
		_, err = repo.Create(ctx, entities.NewIdempotencyRecord("u1:k2", `{}`))
		require.NoError(t, err)
	})
}

func ids(qs []*entities.SurveyQuestion) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Id)
	}
	return out
}

func orders(qs []*entities.SurveyQuestion) []int {
	out := make([]int, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.OrderNum)
	}
	return out
}

func names(ws []*entities.WikiEntry) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Name)
	}
	return out
}
