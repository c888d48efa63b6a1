package entities

import (
	"time"

	"github.com/google/uuid"
)

type LikeTarget string

const (
	LikeTargetPlant  LikeTarget = "plant"
	LikeTargetGarden LikeTarget = "garden"
)

type Like struct {
	UserId     uuid.UUID
	TargetType LikeTarget
	TargetId   uuid.UUID
	CreatedAt  time.Time
}

// LikeState is the outcome of a like or unlike.
type LikeState struct {
	Liked     bool
	LikeCount int64
}
