package openaichat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-screener/internal/ai"
	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/utils"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	Provider            = "openai"
	defaultModel        = "gpt-4.1"
	defaultMaxLogLength = 200
	defaultTemperature  = 0.7
	defaultMaxTokens    = 1000

	// GitHubModelsBaseURL serves OpenAI compatible models for GitHub tokens.
	GitHubModelsBaseURL = "https://models.github.ai/inference"
)

// Config describes an OpenAI compatible chat completions endpoint. BaseURL
// may point at GitHub Models or any other compatible gateway.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

// Generator implements ai.TextGenerator on top of chat completions.
type Generator struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

func NewGenerator(cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required: %w", ai.ErrAuthFailure)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &Generator{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger.WithCommonFields(log, Provider, model),
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, systemInstruction, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(systemInstruction); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	g.logger.Debug("openai chat completion request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, defaultMaxLogLength)),
	)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    messages,
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices: %w", ai.ErrMalformedResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty content: %w", ai.ErrMalformedResponse)
	}

	g.logger.Debug("openai chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, defaultMaxLogLength)),
	)

	return text, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func classify(err error) error {
	wrapped := fmt.Errorf("chat completion: %w", err)

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.StatusCode == http.StatusTooManyRequests:
			return errors.Join(ai.ErrAuthFailure, wrapped)
		default:
			return errors.Join(ai.ErrUnavailable, wrapped)
		}
	}

	return ai.Classify(wrapped)
}
