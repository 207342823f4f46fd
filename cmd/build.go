package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spigell/hh-screener/internal/ai"
	"github.com/spigell/hh-screener/internal/ai/gemini"
	"github.com/spigell/hh-screener/internal/ai/openaichat"
	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/metrics"
	"github.com/spigell/hh-screener/internal/questions"
	"github.com/spigell/hh-screener/internal/screening"
	"github.com/spigell/hh-screener/internal/secrets"
	"github.com/spigell/hh-screener/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

// buildManager wires the session manager from the configuration. The
// returned cleanup closes store connections.
func buildManager(ctx context.Context, config *Config, logger *zap.Logger, recorder metrics.Recorder) (*screening.Manager, func(), error) {
	if config == nil {
		return nil, nil, errors.New("config is required")
	}

	renderer, err := newRenderer(config.Templates)
	if err != nil {
		return nil, nil, err
	}

	bank, err := loadBank(config.Questions)
	if err != nil {
		return nil, nil, err
	}

	generator, err := newTextGenerator(ctx, config, logger)
	if err != nil {
		return nil, nil, err
	}

	timeout := time.Duration(0)
	if config.Questions != nil {
		timeout = config.Questions.Timeout
	}

	gen, err := questions.New(generator, bank, timeout, logger.Named("questions"), recorder)
	if err != nil {
		return nil, nil, err
	}

	st, cleanup, err := newStore(ctx, config.Store, logger, recorder)
	if err != nil {
		return nil, nil, err
	}

	manager, err := screening.NewManager(screeningConfig(config), screening.Deps{
		Renderer:  renderer,
		Questions: gen,
		Store:     st,
		Logger:    logger,
		Metrics:   recorder,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return manager, cleanup, nil
}

func screeningConfig(config *Config) screening.Config {
	var cfg screening.Config
	if s := config.Screening; s != nil {
		cfg.RetryCap = s.RetryCap
		cfg.EndKeywords = s.EndKeywords
		cfg.Checkpoint = s.Checkpoint
		cfg.SaveTimeout = s.SaveTimeout
	}
	if q := config.Questions; q != nil {
		cfg.PerTechnology = q.PerTechnology
		cfg.MaxQuestions = q.Max
	}
	return cfg
}

func newRenderer(templates map[string]string) (*interview.Renderer, error) {
	overrides := make(map[interview.TemplateKind]string, len(templates))
	for key, src := range templates {
		kind := interview.TemplateKind(strings.ToLower(key))
		if !slices.Contains(interview.TemplateKinds(), kind) {
			return nil, fmt.Errorf("unknown template %q, expected one of %v", key, interview.TemplateKinds())
		}
		overrides[kind] = src
	}

	renderer, err := interview.NewRenderer(overrides)
	if err != nil {
		return nil, fmt.Errorf("building templates: %w", err)
	}
	return renderer, nil
}

func loadBank(cfg *QuestionsConfig) (*questions.Bank, error) {
	if cfg == nil || strings.TrimSpace(cfg.BankFile) == "" {
		return questions.DefaultBank()
	}

	data, err := os.ReadFile(cfg.BankFile)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}
	bank, err := questions.ParseBank(data)
	if err != nil {
		return nil, fmt.Errorf("parsing question bank %q: %w", cfg.BankFile, err)
	}
	return bank, nil
}

// newTextGenerator returns nil when no provider is usable; questions then
// come from the bank only.
func newTextGenerator(ctx context.Context, config *Config, logger *zap.Logger) (ai.TextGenerator, error) {
	provider := strings.TrimSpace(strings.ToLower(config.Provider))

	switch provider {
	case "", "none":
		logger.Info("text generation disabled, using the question bank")
		return nil, nil
	case gemini.Provider:
		cfg := config.Gemini
		if cfg == nil {
			cfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  cfg.APIKeyFile,
			Value: cfg.APIKey,
			Env:   []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		})
		if err != nil {
			return missingCredential(logger, provider, err)
		}

		genLogger := logger.With(
			zap.Int("ai_retry_attempts", cfg.MaxRetries),
		)
		return gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
	case openaichat.Provider, "github":
		cfg := config.OpenAI
		if cfg == nil {
			cfg = &OpenAIConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			File:  cfg.APIKeyFile,
			Value: cfg.APIKey,
			Env:   []string{"OPENAI_API_KEY", "GITHUB_TOKEN"},
		})
		if err != nil {
			return missingCredential(logger, provider, err)
		}

		baseURL := cfg.BaseURL
		if provider == "github" && baseURL == "" {
			baseURL = openaichat.GitHubModelsBaseURL
		}

		return openaichat.NewGenerator(openaichat.Config{
			APIKey:     apiKey,
			BaseURL:    baseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}
}

func missingCredential(logger *zap.Logger, provider string, err error) (ai.TextGenerator, error) {
	if !errors.Is(err, secrets.ErrNotConfigured) {
		return nil, err
	}
	logger.Warn("text generation credential is not configured, using the question bank only",
		zap.String("provider", provider),
		zap.Error(err),
	)
	return nil, nil
}

func newStore(ctx context.Context, cfg *StoreConfig, logger *zap.Logger, recorder metrics.Recorder) (store.Store, func(), error) {
	if cfg == nil {
		cfg = &StoreConfig{}
	}

	backend := "memory"
	if strings.TrimSpace(cfg.Backend) != "" {
		backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	}
	logger.Info("using session store", zap.String("backend", backend))

	switch backend {
	case "memory":
		return store.Instrument(store.NewMemory(), backend, recorder), func() {}, nil
	case "redis":
		s, closeFn, err := newRedisStore(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.Instrument(s, backend, recorder), closeFn, nil
	case "sqlite":
		s, err := newSQLiteStore(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return store.Instrument(s, backend, recorder), func() { s.Close() }, nil
	case "mirror":
		primary, closeRedis, err := newRedisStore(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		backup, err := newSQLiteStore(ctx, cfg.SQLite)
		if err != nil {
			closeRedis()
			return nil, nil, err
		}
		mirror := store.NewMirror(
			store.Instrument(primary, "redis", recorder),
			store.Instrument(backup, "sqlite", recorder),
			logger.Named("store"),
		)
		return mirror, func() {
			closeRedis()
			backup.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}

func newRedisStore(ctx context.Context, cfg *RedisConfig, logger *zap.Logger) (*store.Redis, func(), error) {
	if cfg == nil {
		cfg = &RedisConfig{}
	}

	password, err := secrets.Load(secrets.Source{
		Name:  "redis password",
		File:  cfg.PasswordFile,
		Value: cfg.Password,
		Env:   []string{"REDIS_PASSWORD"},
	})
	if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
		return nil, nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: password,
		DB:       cfg.DB,
	})

	// An unreachable server only degrades durability.
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis is not reachable, sessions will not be saved until it recovers",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
	}

	s, err := store.NewRedis(client, cfg.Prefix, cfg.TTL)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return s, func() { client.Close() }, nil
}

func newSQLiteStore(ctx context.Context, cfg *SQLiteConfig) (*store.SQLite, error) {
	path := app + ".db"
	if cfg != nil && strings.TrimSpace(cfg.Path) != "" {
		path = cfg.Path
	}
	return store.OpenSQLite(ctx, path)
}
