package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/entities"
)

// handleSearchWiki filters the catalog. "size" is the page size, so the
// plant size filter travels as plantSize.
func (s *Server) handleSearchWiki(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	res, err := s.services.Wiki.Search(c.Request().Context(), query.WikiSearchQuery{
		Filter: entities.WikiFilter{
			Keyword:   c.QueryParam("keyword"),
			CareLevel: c.QueryParam("careLevel"),
			Light:     c.QueryParam("light"),
			PlantType: c.QueryParam("plantType"),
			Location:  c.QueryParam("location"),
			Size:      c.QueryParam("plantSize"),
		},
		Page: page,
		Size: size,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleGetWikiEntry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Wiki.GetEntry(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return OK(c, res)
}
