package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/greenmap/plant-service/internal/application/command"
)

type chatRequest struct {
	Prompt string `json:"prompt"`
	System string `json:"system"`
}

type identifyRequest struct {
	ImageBase64 string `json:"imageBase64"`
	Hint        string `json:"hint"`
}

type careRequest struct {
	PlantName string `json:"plantName"`
	Question  string `json:"question"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.AI.Chat(c.Request().Context(), &command.ChatCommand{Prompt: req.Prompt, System: req.System})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleIdentify(c echo.Context) error {
	var req identifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.AI.Identify(c.Request().Context(), &command.IdentifyCommand{ImageBase64: req.ImageBase64, Hint: req.Hint})
	if err != nil {
		return err
	}
	return OK(c, res)
}

func (s *Server) handleCare(c echo.Context) error {
	var req careRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.AI.Care(c.Request().Context(), &command.CareCommand{PlantName: req.PlantName, Question: req.Question})
	if err != nil {
		return err
	}
	return OK(c, res)
}
