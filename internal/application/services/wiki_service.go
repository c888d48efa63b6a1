package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
	"github.com/greenmap/plant-service/internal/domain/repositories"
)

type WikiService struct {
	wikiRepo repositories.WikiRepository
	logger   *zap.Logger
}

func NewWikiService(wikiRepo repositories.WikiRepository, logger *zap.Logger) *WikiService {
	return &WikiService{wikiRepo: wikiRepo, logger: logger}
}

var _ interfaces.WikiService = (*WikiService)(nil)

// Seed upserts entries keyed by scientific name.
func (s *WikiService) Seed(ctx context.Context, entries []*entities.WikiEntry) (int, error) {
	for i, e := range entries {
		e.Normalize()
		if err := e.Validate(); err != nil {
			return 0, common.InvalidInput(fmt.Sprintf("entry %d: %v", i+1, err))
		}
	}
	if len(entries) == 0 {
		return 0, nil
	}
	n, err := s.wikiRepo.Upsert(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("seed wiki: %w", err)
	}
	s.logger.Info("Wiki catalog seeded", zap.Int("entries", n))
	return n, nil
}

func (s *WikiService) Search(ctx context.Context, searchQuery query.WikiSearchQuery) (*common.PageResult[*entities.WikiEntry], error) {
	page := repositories.NewPage(searchQuery.Page, searchQuery.Size)
	entries, total, err := s.wikiRepo.Search(ctx, searchQuery.Filter, page)
	if err != nil {
		return nil, fmt.Errorf("search wiki: %w", err)
	}
	return common.NewPageResult(entries, total, page), nil
}

func (s *WikiService) GetEntry(ctx context.Context, id uuid.UUID) (*entities.WikiEntry, error) {
	entry, err := s.wikiRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, common.NotFound("wiki entry not found")
	}
	return entry, nil
}

type wikiSeedFile struct {
	Entries []*entities.WikiEntry `yaml:"entries"`
}

// LoadWikiSeed reads a YAML catalog file. The file holds either a top-level
// list or an "entries" key.
func LoadWikiSeed(path string) ([]*entities.WikiEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var list []*entities.WikiEntry
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var file wikiSeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return file.Entries, nil
}
