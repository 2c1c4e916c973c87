package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hirestack/resume-screener/internal/config"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the model answers with no content.
// Callers treat it like any other generation failure.
var ErrEmptyCompletion = errors.New("empty completion from model")

type OpenRouterServiceInterface interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

type OpenRouterService struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	model   string
	logger  *zap.Logger
}

func NewOpenRouterService(logger *zap.Logger) *OpenRouterService {
	cfg := config.LoadOpenRouterConfig()
	return &OpenRouterService{
		client:  resty.New(),
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		logger:  logger,
	}
}

// Complete sends one chat-completions request and returns the raw text of
// the first choice. Transport errors and empty content are both fatal to
// the caller; malformed content is the caller's problem to repair.
func (s *OpenRouterService) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model":       s.model,
			"temperature": temperature,
			"messages": []map[string]string{
				{"role": "system", "content": systemPrompt},
				{"role": "user", "content": userPrompt},
			},
		}).
		Post(s.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode(), resp.String())
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		s.logger.Warn("model returned empty completion", zap.String("model", s.model))
		return "", ErrEmptyCompletion
	}

	return text, nil
}
