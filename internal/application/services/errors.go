package services

import (
	"errors"
	"fmt"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

// repoError maps repository sentinels onto application errors.
func repoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return common.NotFound(what + " not found")
	case errors.Is(err, repositories.ErrDuplicate):
		return common.Conflict(what + " already exists")
	case errors.Is(err, entities.ErrSurveyNotDraft):
		return common.Conflict(err.Error())
	}
	return fmt.Errorf("%s: %w", what, err)
}
