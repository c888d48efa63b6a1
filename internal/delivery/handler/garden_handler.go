package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/command"
)

type gardenRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
	CoverURL    string   `json:"coverUrl"`
	IsPublic    *bool    `json:"isPublic"`
}

type updateGardenRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	CoverURL    *string  `json:"coverUrl"`
	IsPublic    *bool    `json:"isPublic"`
}

func (s *Server) handleCreateGarden(c echo.Context) error {
	var req gardenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Gardens.CreateGarden(c.Request().Context(), &command.CreateGardenCommand{
		OwnerId:     principal(c).UserId,
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		CoverURL:    req.CoverURL,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleGetGarden(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Gardens.GetGarden(c.Request().Context(), principal(c).UserId, id)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleNearbyGardens(c echo.Context) error {
	q, err := nearbyQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Gardens.Nearby(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleMyGardens(c echo.Context) error {
	q, err := pageQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Gardens.Mine(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleGardenPlants(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := pageQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Gardens.Plants(c.Request().Context(), id, q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleUpdateGarden(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateGardenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Gardens.UpdateGarden(c.Request().Context(), &command.UpdateGardenCommand{
		Id:          id,
		ActorId:     principal(c).UserId,
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		CoverURL:    req.CoverURL,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleDeleteGarden(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.services.Gardens.DeleteGarden(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return OK(c, nil)
}

func (s *Server) handleLikeGarden(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Gardens.Like(c.Request().Context(), principal(c).UserId, id)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleUnlikeGarden(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Gardens.Unlike(c.Request().Context(), principal(c).UserId, id)
	if err != nil {
		return err
	}
	return OK(c, res)
}
