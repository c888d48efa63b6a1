package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/query"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateInfoRequest struct {
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
	Bio       *string `json:"bio"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Users.CreateUser(c.Request().Context(), &command.CreateUserCommand{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		Nickname:       req.Nickname,
		ClientIP:       c.RealIP(),
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	return OK(c, res.Result)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Users.LoginUser(c.Request().Context(), &command.LoginUserCommand{
		Username: req.Username,
		Password: req.Password,
		ClientIP: c.RealIP(),
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.services.Users.Logout(c.Request().Context(), principal(c)); err != nil {
		return err
	}
	return OK(c, nil)
}

func (s *Server) handleGetInfo(c echo.Context) error {
	res, err := s.services.Users.GetProfile(c.Request().Context(), principal(c).UserId)
	if err != nil {
		return err
	}
	return OK(c, res.Result)
}

func (s *Server) handleUpdateInfo(c echo.Context) error {
	var req updateInfoRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Users.UpdateProfile(c.Request().Context(), &command.UpdateProfileCommand{
		UserId:    principal(c).UserId,
		Nickname:  req.Nickname,
		Email:     req.Email,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		return err
	}
	return OK(c, res.Result)
}

func (s *Server) handleChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := s.services.Users.ChangePassword(c.Request().Context(), &command.ChangePasswordCommand{
		UserId:      principal(c).UserId,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return OK(c, nil)
}

func (s *Server) handleListUsers(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	res, err := s.services.Users.ListUsers(c.Request().Context(), &query.ListUsersQuery{
		Keyword: c.QueryParam("keyword"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleGetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.services.Users.FindUserById(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return OK(c, res.Result)
}
