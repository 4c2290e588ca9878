package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 512
)

// ErrQuotaExceeded — провайдер ответил ограничением квоты (HTTP 429).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// OpenAIDescriber пишет пояснение к отчёту через OpenAI-совместимый API.
type OpenAIDescriber struct {
	client *openai.Client
	model  string
}

// NewOpenAIDescriber создаёт описатель; пустой baseURL — официальный API OpenAI.
func NewOpenAIDescriber(apiKey, baseURL, model string) *OpenAIDescriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIDescriber{client: openai.NewClientWithConfig(cfg), model: model}
}

// Describe отправляет сжатый отчёт модели и возвращает её ответ.
func (d *OpenAIDescriber) Describe(ctx context.Context, report *entity.DiagnosticReport) (*entity.AiDescription, error) {
	req := openai.ChatCompletionRequest{
		Model:       d.model,
		MaxTokens:   maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(report)},
		},
	}

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return &entity.AiDescription{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: resp.Model,
	}, nil
}

var _ port.DefectDescriber = (*OpenAIDescriber)(nil)
