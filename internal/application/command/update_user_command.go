package command

import "github.com/google/uuid"

type UpdateProfileCommand struct {
	UserId    uuid.UUID
	Nickname  *string
	Email     *string
	Phone     *string
	AvatarURL *string
	Bio       *string
}

type ChangePasswordCommand struct {
	UserId      uuid.UUID
	OldPassword string
	NewPassword string
}
