package query

import "github.com/greenmap/plant-service/internal/application/common"

type UserQueryResult struct {
	Result *common.UserResult `json:"result"`
}

type PublicUserQueryResult struct {
	Result *common.PublicUserResult `json:"result"`
}

type ListUsersQuery struct {
	Keyword string
	Page    int
	Size    int
}
