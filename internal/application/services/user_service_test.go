package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/db/gormstore"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
)

func newUserService(t *testing.T, limiter *infrastructure.RateLimiter) (*UserService, *fakePublisher, *fakeMailer) {
	t.Helper()
	return newUserServiceWith(t, limiter, disabledRedis())
}

func newUserServiceWith(t *testing.T, limiter *infrastructure.RateLimiter, redisService *infrastructure.RedisService) (*UserService, *fakePublisher, *fakeMailer) {
	t.Helper()
	db := newTestDB(t)
	events := &fakePublisher{}
	mailer := &fakeMailer{}
	svc := NewUserService(
		gormstore.NewUserRepository(db),
		gormstore.NewIdempotencyRepository(db),
		redisService,
		infrastructure.NewJWTService("test-secret", time.Hour),
		mailer,
		limiter,
		events,
		nil,
		zap.NewNop(),
	)
	return svc, events, mailer
}

func register(t *testing.T, svc *UserService, username, email string) *command.CreateUserCommandResult {
	t.Helper()
	res, err := svc.CreateUser(context.Background(), &command.CreateUserCommand{
		Username: username,
		Email:    email,
		Password: "secret123",
		ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	return res
}

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()
	svc, events, mailer := newUserService(t, nil)

	res := register(t, svc, "alice", "alice@example.com")
	assert.Equal(t, "alice", res.Result.Username)
	assert.Equal(t, []string{messaging.SubjectUserRegistered}, events.subjects())
	assert.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 10*time.Millisecond)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, &command.CreateUserCommand{Username: "alice", Password: "secret123"})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, &command.CreateUserCommand{Username: "alice2", Email: "ALICE@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, &command.CreateUserCommand{Username: "al", Password: "secret123"})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		_, err = svc.CreateUser(ctx, &command.CreateUserCommand{Username: "dave", Password: "123"})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		_, err = svc.CreateUser(ctx, &command.CreateUserCommand{Username: "dave", Email: "not-an-email", Password: "secret123"})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("idempotent replay", func(t *testing.T) {
		cmd := &command.CreateUserCommand{Username: "erin", Password: "secret123", IdempotencyKey: "k-1"}
		first, err := svc.CreateUser(ctx, cmd)
		require.NoError(t, err)
		second, err := svc.CreateUser(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, first.Result.Id, second.Result.Id)
	})
}

func TestUserService_RegistrationRateLimit(t *testing.T) {
	limiter := infrastructure.NewRateLimiter(time.Minute, 2)
	t.Cleanup(limiter.Stop)
	svc, _, _ := newUserService(t, limiter)

	register(t, svc, "user1", "")
	register(t, svc, "user2", "")
	_, err := svc.CreateUser(context.Background(), &command.CreateUserCommand{
		Username: "user3", Password: "secret123", ClientIP: "10.0.0.1",
	})
	assert.ErrorIs(t, err, common.ErrRateLimited)

	var appErr *common.Error
	require.ErrorAs(t, err, &appErr)
	assert.Greater(t, appErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, appErr.RetryAfter, time.Minute)
}

func TestUserService_LoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, nil)
	created := register(t, svc, "alice", "alice@example.com")

	login, err := svc.LoginUser(ctx, &command.LoginUserCommand{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.NotEmpty(t, login.Token)

	principal, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, created.Result.Id, principal.UserId)
	assert.Equal(t, "alice", principal.Username)

	t.Run("login by email", func(t *testing.T) {
		_, err := svc.LoginUser(ctx, &command.LoginUserCommand{Username: "alice@example.com", Password: "secret123"})
		assert.NoError(t, err)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, errWrong := svc.LoginUser(ctx, &command.LoginUserCommand{Username: "alice", Password: "nope123"})
		_, errUnknown := svc.LoginUser(ctx, &command.LoginUserCommand{Username: "nobody", Password: "nope123"})
		assert.ErrorIs(t, errWrong, common.ErrUnauthorized)
		assert.ErrorIs(t, errUnknown, common.ErrUnauthorized)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "not.a.token")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, nil)
	alice := register(t, svc, "alice", "alice@example.com")
	register(t, svc, "bob", "bob@example.com")

	profile, err := svc.UpdateProfile(ctx, &command.UpdateProfileCommand{
		UserId:   alice.Result.Id,
		Nickname: ptr("Ally"),
		Bio:      ptr("Fern collector"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ally", profile.Result.Nickname)

	got, err := svc.GetProfile(ctx, alice.Result.Id)
	require.NoError(t, err)
	assert.Equal(t, "Fern collector", got.Result.Bio)

	_, err = svc.UpdateProfile(ctx, &command.UpdateProfileCommand{UserId: alice.Result.Id, Email: ptr("bob@example.com")})
	assert.ErrorIs(t, err, common.ErrConflict)

	t.Run("change password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, &command.ChangePasswordCommand{UserId: alice.Result.Id, OldPassword: "wrong1", NewPassword: "newsecret"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)

		require.NoError(t, svc.ChangePassword(ctx, &command.ChangePasswordCommand{UserId: alice.Result.Id, OldPassword: "secret123", NewPassword: "newsecret"}))
		_, err = svc.LoginUser(ctx, &command.LoginUserCommand{Username: "alice", Password: "newsecret"})
		assert.NoError(t, err)
	})

	t.Run("list and promote", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, &query.ListUsersQuery{Page: 1, Size: 10, Keyword: "bo"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)

		promoted, err := svc.PromoteUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "admin", promoted.Result.Role)

		_, err = svc.PromoteUser(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUserService_WithRedis(t *testing.T) {
	ctx := context.Background()
	mr, redisService := newMiniRedis(t)
	svc, _, _ := newUserServiceWith(t, nil, redisService)
	alice := register(t, svc, "alice", "alice@example.com")
	profileKey := "profile:" + alice.Result.Id.String()

	t.Run("profile cache is dropped on update", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, alice.Result.Id)
		require.NoError(t, err)
		assert.True(t, mr.Exists(profileKey))

		_, err = svc.UpdateProfile(ctx, &command.UpdateProfileCommand{UserId: alice.Result.Id, Nickname: ptr("Ally")})
		require.NoError(t, err)
		assert.False(t, mr.Exists(profileKey))

		got, err := svc.GetProfile(ctx, alice.Result.Id)
		require.NoError(t, err)
		assert.Equal(t, "Ally", got.Result.Nickname)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		login, err := svc.LoginUser(ctx, &command.LoginUserCommand{Username: "alice", Password: "secret123"})
		require.NoError(t, err)
		principal, err := svc.Authenticate(ctx, login.Token)
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, principal))
		_, err = svc.Authenticate(ctx, login.Token)
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("registration replay comes from redis", func(t *testing.T) {
		cmd := &command.CreateUserCommand{Username: "frank", Password: "secret123", IdempotencyKey: "reg-7"}
		first, err := svc.CreateUser(ctx, cmd)
		require.NoError(t, err)
		assert.True(t, mr.Exists("idem:reg:reg-7"))

		second, err := svc.CreateUser(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, first.Result.Id, second.Result.Id)
	})
}
