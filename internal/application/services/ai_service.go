package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/command"
	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/interfaces"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/ai"
)

const maxPromptChars = 4000

const (
	assistantSystemPrompt = "You are a friendly botanist helping people in a plant-discovery app. Answer concisely."
	identifySystemPrompt  = "You identify plants from photos. Reply with the most likely common name, the scientific name, a confidence level and one or two distinguishing features. If the photo shows no plant, say so."
	careSystemPrompt      = "You give practical plant care advice covering light, watering, soil, temperature and common problems."
)

type AIService struct {
	provider      ai.Provider
	imageMaxBytes int
	logger        *zap.Logger
}

// NewAIService accepts a nil provider; every call then fails as unavailable.
func NewAIService(provider ai.Provider, imageMaxBytes int, logger *zap.Logger) *AIService {
	return &AIService{provider: provider, imageMaxBytes: imageMaxBytes, logger: logger}
}

var _ interfaces.AIService = (*AIService)(nil)

func (s *AIService) Chat(ctx context.Context, chatCommand *command.ChatCommand) (*common.AIResult, error) {
	prompt, err := checkPrompt(chatCommand.Prompt)
	if err != nil {
		return nil, err
	}
	system := strings.TrimSpace(chatCommand.System)
	if system == "" {
		system = assistantSystemPrompt
	}
	return s.complete(ctx, ai.Request{System: system, Prompt: prompt})
}

func (s *AIService) Identify(ctx context.Context, identifyCommand *command.IdentifyCommand) (*common.AIResult, error) {
	if strings.TrimSpace(identifyCommand.ImageBase64) == "" {
		return nil, common.InvalidInput("imageBase64 is required")
	}
	img, err := infrastructure.DecodeImage(identifyCommand.ImageBase64, s.imageMaxBytes)
	if err != nil {
		return nil, common.InvalidInput(err.Error())
	}
	prompt := "What plant is this?"
	if hint := strings.TrimSpace(identifyCommand.Hint); hint != "" {
		prompt += " Additional context: " + hint
	}
	if _, err := checkPrompt(prompt); err != nil {
		return nil, err
	}
	return s.complete(ctx, ai.Request{
		System: identifySystemPrompt,
		Prompt: prompt,
		Image:  &ai.Image{ContentType: img.ContentType, Base64: img.Base64()},
	})
}

func (s *AIService) Care(ctx context.Context, careCommand *command.CareCommand) (*common.AIResult, error) {
	name := strings.TrimSpace(careCommand.PlantName)
	if name == "" {
		return nil, common.InvalidInput("plantName is required")
	}
	prompt := fmt.Sprintf("How do I care for a %s?", name)
	if q := strings.TrimSpace(careCommand.Question); q != "" {
		prompt = fmt.Sprintf("About my %s: %s", name, q)
	}
	prompt, err := checkPrompt(prompt)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, ai.Request{System: careSystemPrompt, Prompt: prompt})
}

func (s *AIService) complete(ctx context.Context, req ai.Request) (*common.AIResult, error) {
	if s.provider == nil {
		return nil, common.Unavailable(ai.ErrNotConfigured.Error())
	}
	out, err := s.provider.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("AI request failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		return nil, common.Upstream("AI provider request failed")
	}
	return &common.AIResult{Text: out.Text, Model: out.Model}, nil
}

func checkPrompt(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", common.InvalidInput("prompt must not be empty")
	}
	if utf8.RuneCountInString(prompt) > maxPromptChars {
		return "", common.InvalidInput(fmt.Sprintf("prompt must be at most %d characters", maxPromptChars))
	}
	return prompt, nil
}
