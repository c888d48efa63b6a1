package command

import (
	"time"

	"github.com/greenmap/plant-service/internal/application/common"
)

type LoginUserCommand struct {
	Username string
	Password string
	ClientIP string
}

type LoginUserCommandResult struct {
	Token     string             `json:"token"`
	TokenType string             `json:"tokenType"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *common.UserResult `json:"user"`
}
