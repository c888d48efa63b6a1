package command

import "github.com/greenmap/plant-service/internal/application/common"

type CreateUserCommand struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"-"`
	Phone          string `json:"phone"`
	Nickname       string `json:"nickname"`
	ClientIP       string `json:"-"`
	IdempotencyKey string `json:"-"`
}

type CreateUserCommandResult struct {
	Result *common.UserResult `json:"result"`
}
