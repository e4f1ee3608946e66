package ai

import (
	"context"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/omniboxai/omnibox/internal/config"
)

// completer is the slice of the OpenAI client the service actually uses.
// Tests substitute a fake.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service wraps chat completions for escalation classification and reply
// drafting.
type Service struct {
	client        completer
	logger        *slog.Logger
	chatModel     string
	classifyModel string
	cfg           config.OpenAIConfig
}

func NewService(log *slog.Logger, cfg config.OpenAIConfig) *Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newService(log, openai.NewClientWithConfig(clientCfg), cfg)
}

func newService(log *slog.Logger, client completer, cfg config.OpenAIConfig) *Service {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4o
	}
	classifyModel := cfg.ClassifyModel
	if classifyModel == "" {
		classifyModel = openai.GPT4oMini
	}
	return &Service{
		client:        client,
		logger:        log.With(slog.String("service", "ai")),
		chatModel:     chatModel,
		classifyModel: classifyModel,
		cfg:           cfg,
	}
}

func (s *Service) complete(ctx context.Context, model, system, user string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
