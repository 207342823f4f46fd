// Package screening drives candidate screening conversations and keeps the
// sessions they belong to.
package screening

import (
	"errors"
	"fmt"
	"time"

	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/metrics"
	"github.com/spigell/hh-screener/internal/questions"
	"github.com/spigell/hh-screener/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultRetryCap    = 3
	DefaultSaveTimeout = 5 * time.Second
)

// DefaultEndKeywords end the screening early when found as a whole word.
var DefaultEndKeywords = []string{"bye", "goodbye", "exit", "quit", "stop"}

// Config tunes conversation behaviour.
type Config struct {
	// RetryCap is the number of failed answers after which a field is
	// recorded as unknown.
	RetryCap      int
	EndKeywords   []string
	PerTechnology int
	MaxQuestions  int
	SaveTimeout   time.Duration
	// Checkpoint saves the session after every turn instead of only on
	// entering Closing and Ended.
	Checkpoint bool
}

// Deps aggregates the collaborators of conversations and the manager.
type Deps struct {
	Renderer  *interview.Renderer
	Questions *questions.Generator
	Store     store.Store
	Logger    *zap.Logger
	Metrics   metrics.Recorder
	Now       func() time.Time
	NewID     func() string
}

func (c Config) withDefaults() Config {
	if c.RetryCap <= 0 {
		c.RetryCap = DefaultRetryCap
	}
	if c.EndKeywords == nil {
		c.EndKeywords = DefaultEndKeywords
	}
	if c.PerTechnology <= 0 {
		c.PerTechnology = questions.DefaultPerTechnology
	}
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = questions.DefaultMax
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}
	return c
}

func (d Deps) validate() error {
	if d.Renderer == nil {
		return errors.New("renderer is required")
	}
	if missing := d.Renderer.Missing(); len(missing) > 0 {
		return fmt.Errorf("templates %v: %w", missing, interview.ErrMissingTemplate)
	}
	if d.Questions == nil {
		return errors.New("question generator is required")
	}
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	d.Metrics = metrics.OrNop(d.Metrics)
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Store == nil {
		d.Store = store.NewMemory()
	}
	return d
}
