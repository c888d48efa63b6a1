package mapper

import (
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/domain/entities"
)

func NewUserResultFromEntity(user *entities.User) *common.UserResult {
	return &common.UserResult{
		Id:        user.Id,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Nickname:  user.Nickname,
		AvatarURL: user.AvatarURL,
		Bio:       user.Bio,
		Role:      user.Role,
	}
}

func NewUserResultFromValidatedEntity(validatedUser *entities.ValidatedUser) *common.UserResult {
	return NewUserResultFromEntity(validatedUser.GetUser())
}

func NewPublicUserResultFromEntity(user *entities.User) *common.PublicUserResult {
	return &common.PublicUserResult{
		Id:        user.Id,
		Username:  user.Username,
		Nickname:  user.DisplayName(),
		AvatarURL: user.AvatarURL,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
	}
}
