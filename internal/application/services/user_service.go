package services

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/messaging"
	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

const (
	profileCacheTTL = 24 * time.Hour
	mailTimeout     = 10 * time.Second
	tokenType       = "Bearer"
)

type UserService struct {
	userRepo     repositories.UserRepository
	idempotency  *idempotencyStore
	redisService *infrastructure.RedisService
	jwtService   *infrastructure.JWTService
	mailer       interfaces.Mailer
	rateLimiter  *infrastructure.RateLimiter
	events       interfaces.EventPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	idempotencyRepo repositories.IdempotencyRepository,
	redisService *infrastructure.RedisService,
	jwtService *infrastructure.JWTService,
	mailer interfaces.Mailer,
	rateLimiter *infrastructure.RateLimiter,
	events interfaces.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		idempotency:  &idempotencyStore{repo: idempotencyRepo, redis: redisService, logger: logger},
		redisService: redisService,
		jwtService:   jwtService,
		mailer:       mailer,
		rateLimiter:  rateLimiter,
		events:       events,
		metrics:      m,
		logger:       logger,
	}
}

var _ interfaces.UserService = (*UserService)(nil)

func (s *UserService) CreateUser(ctx context.Context, createCommand *command.CreateUserCommand) (*command.CreateUserCommandResult, error) {
	// Check idempotency key
	var replay command.CreateUserCommandResult
	found, err := s.idempotency.begin(ctx, "reg", createCommand.IdempotencyKey, createCommand, &replay)
	if err != nil {
		return nil, err
	}
	if found {
		return &replay, nil
	}

	createdUser, err := s.createUser(ctx, createCommand)
	if err != nil {
		s.idempotency.release(ctx, "reg", createCommand.IdempotencyKey)
		return nil, err
	}
	result := command.CreateUserCommandResult{
		Result: mapper.NewUserResultFromEntity(createdUser),
	}

	s.idempotency.complete(ctx, "reg", createCommand.IdempotencyKey, result)
	s.events.Publish(ctx, messaging.SubjectUserRegistered, result.Result)
	s.sendWelcome(ctx, createdUser)

	return &result, nil
}

func (s *UserService) createUser(ctx context.Context, createCommand *command.CreateUserCommand) (*entities.User, error) {
	if err := s.limit("reg:"+createCommand.ClientIP, "too many registration attempts, please try again later"); err != nil {
		return nil, err
	}

	if err := entities.ValidatePlainPassword(createCommand.Password); err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	newUser := entities.NewUser(createCommand.Username, createCommand.Email, createCommand.Password)
	if err := newUser.UpdateProfile(entities.ProfilePatch{
		Phone:    &createCommand.Phone,
		Nickname: &createCommand.Nickname,
	}); err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	validatedUser, err := entities.NewValidatedUser(newUser)
	if err != nil {
		return nil, common.InvalidInput(err.Error())
	}

	// Check if user already exists
	existingUser, err := s.userRepo.FindByUsername(ctx, newUser.Username)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, common.Conflict("username already exists")
	}
	existingUser, err = s.userRepo.FindByEmail(ctx, newUser.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, common.Conflict("email already exists")
	}

	createdUser, err := s.userRepo.Create(ctx, validatedUser)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.Conflict("username or email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return createdUser, nil
}

func (s *UserService) sendWelcome(ctx context.Context, user *entities.User) {
	if user.Email == "" || s.mailer == nil || !s.mailer.Enabled() {
		return
	}
	go func() {
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
		defer cancel()
		if err := s.mailer.SendWelcome(mailCtx, user.Email, user.DisplayName()); err != nil {
			s.logger.Warn("Failed to send welcome mail", zap.String("user_id", user.Id.String()), zap.Error(err))
		}
	}()
}

func (s *UserService) LoginUser(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error) {
	if err := s.limit("login:"+loginCommand.ClientIP, "too many login attempts, please try again later"); err != nil {
		return nil, err
	}
	if loginCommand.Username == "" || loginCommand.Password == "" {
		return nil, common.InvalidInput("username and password are required")
	}

	// Find user by credentials
	user, err := s.userRepo.FindByCredentials(ctx, loginCommand.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.Unauthorized("invalid credentials")
	}

	// Check password
	if err := user.CheckPassword(loginCommand.Password); err != nil {
		return nil, common.Unauthorized("invalid credentials")
	}

	// Generate JWT token
	issued, err := s.jwtService.GenerateToken(user.Id, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	// Store the token id so logout can revoke it
	if err := s.redisService.SetToken(ctx, issued.JTI, user.Id.String(), s.jwtService.TTL()); err != nil {
		s.logger.Warn("Failed to store token in Redis", zap.Error(err))
	}

	return &command.LoginUserCommandResult{
		Token:     issued.Token,
		TokenType: tokenType,
		ExpiresAt: issued.ExpiresAt,
		User:      mapper.NewUserResultFromEntity(user),
	}, nil
}

func (s *UserService) Logout(ctx context.Context, principal *common.Principal) error {
	if err := s.redisService.RevokeToken(ctx, principal.JTI); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate verifies a token. When Redis is up, the token id must still be
// stored; a missing id means the token was revoked.
func (s *UserService) Authenticate(ctx context.Context, token string) (*common.Principal, error) {
	claims, err := s.jwtService.ParseToken(token)
	if err != nil {
		return nil, common.Unauthorized("invalid or expired token")
	}
	userId, _ := claims.UserId()

	if s.redisService.Enabled() {
		stored, err := s.redisService.GetToken(ctx, claims.ID)
		switch {
		case errors.Is(err, infrastructure.ErrCacheMiss):
			return nil, common.Unauthorized("token revoked")
		case err != nil:
			// fall back to the signature check
			s.logger.Warn("Token lookup failed", zap.Error(err))
		case stored != userId.String():
			return nil, common.Unauthorized("token revoked")
		}
	}

	return &common.Principal{
		UserId:   userId,
		Username: claims.Username,
		Role:     claims.Role,
		JTI:      claims.ID,
	}, nil
}

func (s *UserService) FindUserById(ctx context.Context, id uuid.UUID) (*query.PublicUserQueryResult, error) {
	user, err := s.userRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NotFound("user not found")
	}

	return &query.PublicUserQueryResult{
		Result: mapper.NewPublicUserResultFromEntity(user),
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*query.UserQueryResult, error) {
	// First, try to get the profile from Redis cache
	cachedUser, err := s.redisService.GetProfile(ctx, id.String())
	if err == nil && cachedUser != nil {
		s.metrics.CacheHit("profile")
		return &query.UserQueryResult{Result: mapper.NewUserResultFromEntity(cachedUser)}, nil
	}
	if err != nil && !errors.Is(err, infrastructure.ErrCacheMiss) {
		s.logger.Warn("Profile cache read failed", zap.Error(err))
	}
	s.metrics.CacheMiss("profile")

	// If not in cache, get it from the database
	user, err := s.userRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NotFound("user not found")
	}

	// Cache the user profile in Redis for future access, with TTL
	if err := s.redisService.SetProfile(ctx, id.String(), user, profileCacheTTL); err != nil {
		s.logger.Warn("Failed to cache user profile", zap.Error(err))
	}

	return &query.UserQueryResult{Result: mapper.NewUserResultFromEntity(user)}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, updateCommand *command.UpdateProfileCommand) (*query.UserQueryResult, error) {
	user, err := s.userRepo.FindById(ctx, updateCommand.UserId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NotFound("user not found")
	}

	validatedUser, err := entities.NewValidatedUser(user)
	if err != nil {
		return nil, err
	}
	if err := validatedUser.UpdateProfile(entities.ProfilePatch{
		Nickname:  updateCommand.Nickname,
		Email:     updateCommand.Email,
		Phone:     updateCommand.Phone,
		AvatarURL: updateCommand.AvatarURL,
		Bio:       updateCommand.Bio,
	}); err != nil {
		return nil, common.InvalidInput(err.Error())
	}

	if user.Email != "" {
		other, err := s.userRepo.FindByEmail(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.Id != user.Id {
			return nil, common.Conflict("email already exists")
		}
	}

	updated, err := s.userRepo.Update(ctx, validatedUser)
	if err != nil {
		return nil, repoError(err, "user")
	}
	s.invalidateProfile(ctx, user.Id)

	return &query.UserQueryResult{Result: mapper.NewUserResultFromEntity(updated)}, nil
}

func (s *UserService) ChangePassword(ctx context.Context, changeCommand *command.ChangePasswordCommand) error {
	user, err := s.userRepo.FindById(ctx, changeCommand.UserId)
	if err != nil {
		return err
	}
	if user == nil {
		return common.NotFound("user not found")
	}
	if err := user.CheckPassword(changeCommand.OldPassword); err != nil {
		return common.Unauthorized("old password is incorrect")
	}
	if err := entities.ValidatePlainPassword(changeCommand.NewPassword); err != nil {
		return common.InvalidInput(err.Error())
	}

	user.Password = changeCommand.NewPassword
	if err := user.HashPassword(); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.Id, user.Password); err != nil {
		return repoError(err, "user")
	}
	s.invalidateProfile(ctx, user.Id)
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, listQuery *query.ListUsersQuery) (*common.PageResult[*common.PublicUserResult], error) {
	page := repositories.NewPage(listQuery.Page, listQuery.Size)
	users, total, err := s.userRepo.List(ctx, listQuery.Keyword, page)
	if err != nil {
		return nil, err
	}
	records := make([]*common.PublicUserResult, 0, len(users))
	for _, u := range users {
		records = append(records, mapper.NewPublicUserResultFromEntity(u))
	}
	return common.NewPageResult(records, total, page), nil
}

func (s *UserService) PromoteUser(ctx context.Context, username string) (*query.UserQueryResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NotFound("user not found")
	}
	user.Promote()
	validatedUser, err := entities.NewValidatedUser(user)
	if err != nil {
		return nil, err
	}
	updated, err := s.userRepo.Update(ctx, validatedUser)
	if err != nil {
		return nil, repoError(err, "user")
	}
	s.invalidateProfile(ctx, user.Id)
	return &query.UserQueryResult{Result: mapper.NewUserResultFromEntity(updated)}, nil
}

func (s *UserService) invalidateProfile(ctx context.Context, id uuid.UUID) {
	if err := s.redisService.DeleteProfile(ctx, id.String()); err != nil {
		s.logger.Warn("Failed to invalidate profile cache", zap.Error(err))
	}
}

// limit reports a rate limit error carrying the time until key may retry.
func (s *UserService) limit(key, msg string) error {
	if s.rateLimiter == nil || s.rateLimiter.Allow(key) {
		return nil
	}
	return common.RateLimitedFor(msg, s.rateLimiter.TimeToReset(key))
}
