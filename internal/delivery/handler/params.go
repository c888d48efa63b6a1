package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
)

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, common.InvalidInput("invalid " + name)
	}
	return id, nil
}

func pageParams(c echo.Context) (page, size int, err error) {
	err = echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("size", &size).
		BindError()
	return page, size, err
}

func pageQuery(c echo.Context) (query.PageQuery, error) {
	page, size, err := pageParams(c)
	return query.PageQuery{UserId: principal(c).UserId, Page: page, Size: size}, err
}

func nearbyQuery(c echo.Context) (query.NearbyQuery, error) {
	q := query.NearbyQuery{UserId: principal(c).UserId}
	err := echo.QueryParamsBinder(c).
		MustFloat64("lat", &q.Lat).
		MustFloat64("lng", &q.Lng).
		Float64("radiusKm", &q.RadiusKm).
		Int("limit", &q.Limit).
		BindError()
	return q, err
}

func actor(c echo.Context) command.Actor {
	p := principal(c)
	return command.Actor{UserId: p.UserId, IsAdmin: p.IsAdmin()}
}

// bind decodes the JSON body; a malformed body is a 400.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return common.InvalidInput("invalid request body")
	}
	return nil
}
