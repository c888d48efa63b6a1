package entities

import (
	"time"

	"github.com/google/uuid"
)

type IdempotencyRecord struct {
	Id         uuid.UUID
	Key        string
	Request    string
	Response   string
	StatusCode int
	CreatedAt  time.Time
}

func NewIdempotencyRecord(key, request string) *IdempotencyRecord {
	return &IdempotencyRecord{
		Id:        uuid.New(),
		Key:       key,
		Request:   request,
		CreatedAt: time.Now(),
	}
}

func (r *IdempotencyRecord) SetResponse(response string, statusCode int) {
	r.Response = response
	r.StatusCode = statusCode
}

// Pending reports whether the request holding the key has not finished yet.
func (r *IdempotencyRecord) Pending() bool {
	return r.StatusCode == 0
}
