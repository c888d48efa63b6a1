package common

import "github.com/google/uuid"

// Principal is the authenticated caller.
type Principal struct {
	UserId   uuid.UUID
	Username string
	Role     string
	JTI      string
}

func (p *Principal) IsAdmin() bool {
	return p.Role == "admin"
}
