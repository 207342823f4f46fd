package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/hh-screener/internal/ai"
	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	Provider            = "gemini"
	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
	baseRetryDelay      = time.Second
	maxRetryDelay       = 10 * time.Second
)

var (
	sleep = time.Sleep

	retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Generator sends single-turn chats to Gemini with a system instruction and
// retries transient failures.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", ai.ErrAuthFailure)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  defaultMaxLogLength,
		logger:     logger.WithCommonFields(log, Provider, model),
	}, nil
}

// GenerateContent starts a chat with the system instruction and returns the
// text of the reply to prompt.
func (g *Generator) GenerateContent(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if g == nil || g.chats == nil {
		return "", fmt.Errorf("gemini generator is not initialized: %w", ai.ErrUnavailable)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if system := strings.TrimSpace(systemInstruction); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	log := g.log()
	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	log.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.logLimit())),
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		chat, err := g.chats.Create(ctx, g.model, config, nil)
		if err != nil {
			return "", ai.Classify(fmt.Errorf("create chat: %w", err))
		}

		resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
		if err == nil {
			text := responseText(resp)
			if text == "" {
				return "", fmt.Errorf("gemini api returned empty response: %w", ai.ErrMalformedResponse)
			}

			log.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(text)),
				zap.String("response_preview", utils.TruncateForLog(text, g.logLimit())),
			)
			return text, nil
		}

		lastErr = err
		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == attempts {
			break
		}

		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := utils.WaitForFunc(ctx, delay, sleep); err != nil {
			return "", ai.Classify(fmt.Errorf("waiting for retry: %w", err))
		}
	}

	return "", ai.Classify(fmt.Errorf("generate content: %w", lastErr))
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) log() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

func (g *Generator) logLimit() int {
	if g.maxLogLen <= 0 {
		return defaultMaxLogLength
	}
	return g.maxLogLen
}

// retryDelay decides whether err is transient and how long to wait. Quota
// errors asking for a long pause are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay := baseRetryDelay * time.Duration(attempt)
		if hinted, ok := parseRetryAfter(apiErr.Message); ok {
			delay = hinted
		}
		if delay > maxRetryDelay {
			return delay, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return baseRetryDelay * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func parseRetryAfter(message string) (time.Duration, bool) {
	match := retryAfterPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
