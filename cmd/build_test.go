package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/metrics"

	"go.uber.org/zap"
)

func TestNewRendererOverrides(t *testing.T) {
	r, err := newRenderer(map[string]string{"Greeting": "Hi there!"})
	if err != nil {
		t.Fatalf("newRenderer: %v", err)
	}

	got, err := r.Render(interview.TemplateGreeting, interview.TemplateData{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Hi there!" {
		t.Fatalf("expected override to win, got %q", got)
	}

	if _, err := newRenderer(map[string]string{"welcome": "Hi"}); err == nil {
		t.Fatalf("expected unknown template to be rejected")
	}
}

func TestNewTextGeneratorWithoutCredentials(t *testing.T) {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "GITHUB_TOKEN"} {
		t.Setenv(env, "")
	}

	for _, provider := range []string{"none", "gemini", "openai", "github"} {
		t.Run(provider, func(t *testing.T) {
			gen, err := newTextGenerator(context.Background(), &Config{Provider: provider}, zap.NewNop())
			if err != nil {
				t.Fatalf("expected fallback mode, got error %v", err)
			}
			if gen != nil {
				t.Fatalf("expected no generator, got %T", gen)
			}
		})
	}

	if _, err := newTextGenerator(context.Background(), &Config{Provider: "claude"}, zap.NewNop()); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  *StoreConfig
	}{
		{name: "default", cfg: nil},
		{name: "memory", cfg: &StoreConfig{Backend: "memory"}},
		{name: "sqlite", cfg: &StoreConfig{Backend: "SQLite", SQLite: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "sessions.db")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, cleanup, err := newStore(ctx, tt.cfg, zap.NewNop(), metrics.Nop{})
			if err != nil {
				t.Fatalf("newStore: %v", err)
			}
			defer cleanup()

			rec := interview.NewRecord("s1", time.Now())
			if err := st.Save(ctx, rec); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := st.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.SessionID != "s1" {
				t.Fatalf("unexpected record: %+v", got)
			}
		})
	}

	if _, _, err := newStore(ctx, &StoreConfig{Backend: "firestore"}, zap.NewNop(), metrics.Nop{}); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

func TestScreeningConfig(t *testing.T) {
	cfg := screeningConfig(&Config{
		Questions: &QuestionsConfig{PerTechnology: 3, Max: 9},
		Screening: &ScreeningConfig{RetryCap: 2, EndKeywords: []string{"done"}, Checkpoint: true, SaveTimeout: time.Second},
	})

	if cfg.RetryCap != 2 || cfg.PerTechnology != 3 || cfg.MaxQuestions != 9 || !cfg.Checkpoint || cfg.SaveTimeout != time.Second {
		t.Fatalf("unexpected screening config: %+v", cfg)
	}
	if len(cfg.EndKeywords) != 1 || cfg.EndKeywords[0] != "done" {
		t.Fatalf("unexpected end keywords: %v", cfg.EndKeywords)
	}

	if empty := screeningConfig(&Config{}); empty.RetryCap != 0 || empty.EndKeywords != nil {
		t.Fatalf("expected zero config to be left for defaults, got %+v", empty)
	}
}
