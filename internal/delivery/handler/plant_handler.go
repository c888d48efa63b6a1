package handler

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/geo"
)

type addPlantRequest struct {
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Description string     `json:"description"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Address     string     `json:"address"`
	GardenId    *uuid.UUID `json:"gardenId"`
	ImageBase64 string     `json:"imageBase64"`
	ImageURL    string     `json:"imageUrl"`
	Tags        []string   `json:"tags"`
}

type updatePlantRequest struct {
	Name        *string  `json:"name"`
	Species     *string  `json:"species"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	// GardenId "" detaches the plant from its garden.
	GardenId    *string  `json:"gardenId"`
	ImageBase64 string   `json:"imageBase64"`
	ImageURL    *string  `json:"imageUrl"`
	Tags        []string `json:"tags"`
}

func (s *Server) handleAddPlant(c echo.Context) error {
	var req addPlantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Plants.AddPlant(c.Request().Context(), &command.AddPlantCommand{
		OwnerId:        principal(c).UserId,
		Name:           req.Name,
		Species:        req.Species,
		Description:    req.Description,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Address:        req.Address,
		GardenId:       req.GardenId,
		ImageBase64:    req.ImageBase64,
		ImageURL:       req.ImageURL,
		Tags:           req.Tags,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleGetPlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var from *geo.Point
	if c.QueryParam("lat") != "" && c.QueryParam("lng") != "" {
		var p geo.Point
		err := echo.QueryParamsBinder(c).Float64("lat", &p.Lat).Float64("lng", &p.Lng).BindError()
		if err != nil {
			return err
		}
		from = &p
	}
	res, err := s.services.Plants.GetPlant(c.Request().Context(), principal(c).UserId, id, from)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleNearbyPlants(c echo.Context) error {
	q, err := nearbyQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Plants.Nearby(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleViewportPlants(c echo.Context) error {
	q := query.ViewportQuery{UserId: principal(c).UserId}
	err := echo.QueryParamsBinder(c).
		MustFloat64("minLat", &q.MinLat).
		MustFloat64("minLng", &q.MinLng).
		MustFloat64("maxLat", &q.MaxLat).
		MustFloat64("maxLng", &q.MaxLng).
		Int("limit", &q.Limit).
		BindError()
	if err != nil {
		return err
	}
	res, err := s.services.Plants.Viewport(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleMyPlants(c echo.Context) error {
	q, err := pageQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Plants.Mine(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleLikedPlants(c echo.Context) error {
	q, err := pageQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Plants.Liked(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleUpdatePlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updatePlantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cmd := &command.UpdatePlantCommand{
		Id:          id,
		ActorId:     principal(c).UserId,
		Name:        req.Name,
		Species:     req.Species,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		ImageBase64: req.ImageBase64,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
	}
	if req.GardenId != nil {
		if strings.TrimSpace(*req.GardenId) == "" {
			cmd.DetachGarden = true
		} else {
			gardenId, err := uuid.Parse(*req.GardenId)
			if err != nil {
				return common.InvalidInput("invalid gardenId")
			}
			cmd.GardenId = &gardenId
		}
	}
	res, err := s.services.Plants.UpdatePlant(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleDeletePlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.services.Plants.DeletePlant(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return OK(c, nil)
}

func (s *Server) handleLikePlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Plants.Like(c.Request().Context(), principal(c).UserId, id)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleUnlikePlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Plants.Unlike(c.Request().Context(), principal(c).UserId, id)
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleMapNearby(c echo.Context) error {
	q, err := nearbyQuery(c)
	if err != nil {
		return err
	}
	res, err := s.services.Map.Nearby(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return OK(c, res)
}
