package questions

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/hh-screener/internal/ai"
	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultTimeout       = 20 * time.Second
	DefaultPerTechnology = 2
	DefaultMax           = 6
)

// ErrNoGenerator means no text generation backend is configured.
var ErrNoGenerator = errors.New("no text generator configured")

//go:embed prompt.md
var promptTemplate string

//go:embed system.md
var systemInstruction string

// Request describes the questions to produce.
type Request struct {
	Technologies    []string
	Count           int
	ExperienceYears int
}

// Batch is the result of a generation. Fallback is set when the questions
// came from the static bank, and Err holds the reason.
type Batch struct {
	Questions []interview.Question
	Fallback  bool
	Err       error
}

// Generator produces technical questions, preferring the text generator and
// falling back to the static bank on any failure.
type Generator struct {
	primary ai.TextGenerator
	bank    *Bank
	timeout time.Duration
	logger  *zap.Logger
	metrics metrics.Recorder
}

// New returns a Generator. primary may be nil, in which case every request
// is served from the bank. The bank must be able to fill any batch.
func New(primary ai.TextGenerator, bank *Bank, timeout time.Duration, logger *zap.Logger, recorder metrics.Recorder) (*Generator, error) {
	if err := bank.validate(); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		primary: primary,
		bank:    bank,
		timeout: timeout,
		logger:  logger,
		metrics: metrics.OrNop(recorder),
	}, nil
}

// Count returns how many questions to ask for a stack of the given size:
// perTech per technology, at least perTech and at most limit.
func Count(technologies, perTech, limit int) int {
	if perTech <= 0 {
		perTech = DefaultPerTechnology
	}
	if limit <= 0 {
		limit = DefaultMax
	}

	n := perTech * technologies
	if n < perTech {
		n = perTech
	}
	if n > limit {
		n = limit
	}
	return n
}

// Generate never fails: errors from the primary path are reported in
// Batch.Err and the bank supplies the questions.
func (g *Generator) Generate(ctx context.Context, req Request) Batch {
	if req.Count <= 0 {
		return Batch{}
	}

	start := time.Now()
	level := LevelForYears(req.ExperienceYears)

	if g.primary == nil {
		batch := g.fallback(req, level, ErrNoGenerator)
		g.metrics.ObserveQuestions(metrics.SourceFallback, "unconfigured", len(batch.Questions), time.Since(start))
		return batch
	}

	qs, err := g.generate(ctx, req, level)
	if err != nil {
		err = ai.Classify(err)
		g.logger.Warn("question generation failed, using fallback bank",
			zap.String("error_kind", ai.Kind(err)),
			zap.Error(err),
		)
		batch := g.fallback(req, level, err)
		g.metrics.ObserveQuestions(metrics.SourceFallback, ai.Kind(err), len(batch.Questions), time.Since(start))
		return batch
	}

	g.metrics.ObserveQuestions(metrics.SourceModel, "", len(qs), time.Since(start))
	return Batch{Questions: qs}
}

// Fallback returns the deterministic bank selection for req.
func (g *Generator) Fallback(req Request) []interview.Question {
	return g.bank.Select(req.Technologies, req.Count, LevelForYears(req.ExperienceYears))
}

func (g *Generator) fallback(req Request, level Level, reason error) Batch {
	return Batch{
		Questions: g.bank.Select(req.Technologies, req.Count, level),
		Fallback:  true,
		Err:       reason,
	}
}

func (g *Generator) generate(ctx context.Context, req Request, level Level) ([]interview.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := buildPrompt(req, level)
	raw, err := g.primary.GenerateContent(ctx, strings.TrimSpace(systemInstruction), prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Join(ai.ErrTimeout, err)
		}
		return nil, err
	}

	qs, err := parseQuestions(raw)
	if err != nil {
		return nil, err
	}

	if len(qs) > req.Count {
		qs = qs[:req.Count]
	}
	if len(qs) < req.Count {
		g.logger.Debug("padding generated questions from bank",
			zap.Int("generated", len(qs)),
			zap.Int("requested", req.Count),
		)
		qs = g.pad(qs, req, level)
	}

	return qs, nil
}

func (g *Generator) pad(qs []interview.Question, req Request, level Level) []interview.Question {
	seen := make(map[string]struct{}, len(qs))
	for _, q := range qs {
		seen[strings.ToLower(q.Text)] = struct{}{}
	}

	// Select more than needed so duplicates can be skipped.
	for _, q := range g.bank.Select(req.Technologies, req.Count*2, level) {
		if len(qs) == req.Count {
			break
		}
		if _, dup := seen[strings.ToLower(q.Text)]; dup {
			continue
		}
		seen[strings.ToLower(q.Text)] = struct{}{}
		qs = append(qs, q)
	}

	for i := 0; len(qs) < req.Count; i++ {
		qs = append(qs, interview.Question{Text: g.bank.General[i%len(g.bank.General)]})
	}
	return qs
}

func buildPrompt(req Request, level Level) string {
	stack := strings.Join(req.Technologies, ", ")
	if stack == "" {
		stack = "not specified, ask general software engineering questions"
	}

	years := fmt.Sprintf("%d years", req.ExperienceYears)
	if req.ExperienceYears == 1 {
		years = "1 year"
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{COUNT}}", strconv.Itoa(req.Count))
	prompt = strings.ReplaceAll(prompt, "{{YEARS}}", years)
	prompt = strings.ReplaceAll(prompt, "{{LEVEL}}", string(level))
	prompt = strings.ReplaceAll(prompt, "{{TECH_STACK}}", stack)
	return strings.TrimSpace(prompt)
}
