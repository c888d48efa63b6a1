package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
)

type UserService interface {
	CreateUser(ctx context.Context, createCommand *command.CreateUserCommand) (*command.CreateUserCommandResult, error)
	LoginUser(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error)
	Logout(ctx context.Context, principal *common.Principal) error
	Authenticate(ctx context.Context, token string) (*common.Principal, error)
	FindUserById(ctx context.Context, id uuid.UUID) (*query.PublicUserQueryResult, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*query.UserQueryResult, error)
	UpdateProfile(ctx context.Context, updateCommand *command.UpdateProfileCommand) (*query.UserQueryResult, error)
	ChangePassword(ctx context.Context, changeCommand *command.ChangePasswordCommand) error
	ListUsers(ctx context.Context, listQuery *query.ListUsersQuery) (*common.PageResult[*common.PublicUserResult], error)
	PromoteUser(ctx context.Context, username string) (*query.UserQueryResult, error)
}
