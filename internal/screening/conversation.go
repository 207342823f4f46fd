package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/metrics"
	"github.com/spigell/hh-screener/internal/questions"
	"github.com/spigell/hh-screener/internal/store"

	"go.uber.org/zap"
)

const (
	EndReasonCompleted = "completed"
	EndReasonKeyword   = "end_keyword"
	EndReasonDuplicate = "duplicate"
)

var (
	// ErrConversationEnded is returned for input submitted after the session ended.
	ErrConversationEnded = errors.New("conversation has ended")
	// ErrTurnAborted marks a turn that was rolled back.
	ErrTurnAborted = errors.New("turn aborted")
)

const fallbackApology = "Sorry, something went wrong on our side. Please try again."

// Reply is the outcome of a single turn.
type Reply struct {
	Message           string
	Stage             interview.Stage
	Progress          int
	ProfileCompletion int
	Ended             bool
	// Aborted is set when the turn failed and the state was rolled back.
	Aborted bool
}

// Conversation is the state machine of one screening session. It is not safe
// for concurrent use; Manager serializes turns per session.
type Conversation struct {
	rec       *interview.Record
	cfg       Config
	renderer  *interview.Renderer
	questions *questions.Generator
	finder    store.Finder
	keywords  *keywordMatcher
	logger    *zap.Logger
	now       func() time.Time
}

// NewConversation continues rec, which is owned by the conversation from now on.
func NewConversation(rec *interview.Record, cfg Config, deps Deps) (*Conversation, error) {
	if rec == nil {
		return nil, errors.New("record is required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	cfg = cfg.withDefaults()

	if rec.Profile == nil {
		rec.Profile = interview.Profile{}
	}
	if rec.Retries == nil {
		rec.Retries = map[interview.Field]int{}
	}
	if rec.Stage.Kind == "" {
		rec.Stage = interview.Greeting()
	}

	// Stores that cannot search by contact skip the duplicate check.
	finder, _ := deps.Store.(store.Finder)

	return &Conversation{
		rec:       rec,
		cfg:       cfg,
		renderer:  deps.Renderer,
		questions: deps.Questions,
		finder:    finder,
		keywords:  newKeywordMatcher(cfg.EndKeywords),
		logger:    logger.WithSession(deps.Logger, rec.SessionID),
		now:       deps.Now,
	}, nil
}

func (c *Conversation) SessionID() string { return c.rec.SessionID }

func (c *Conversation) Stage() interview.Stage { return c.rec.Stage }

// Record returns a snapshot of the session.
func (c *Conversation) Record() *interview.Record { return c.rec.Clone() }

// Start returns the greeting. For a conversation that already has a
// transcript it repeats the last assistant message.
func (c *Conversation) Start() (Reply, error) {
	for i := len(c.rec.Transcript) - 1; i >= 0; i-- {
		if c.rec.Transcript[i].Role == interview.RoleAssistant {
			return c.reply(c.rec.Transcript[i].Text), nil
		}
	}

	msg, err := c.render(interview.TemplateGreeting, interview.TemplateData{})
	if err != nil {
		return Reply{}, err
	}
	c.rec.Append(interview.RoleAssistant, msg, c.now())
	return c.reply(msg), nil
}

// Submit handles one candidate utterance and returns the next message.
// A failing or panicking turn leaves the state untouched and replies with an
// apology.
func (c *Conversation) Submit(ctx context.Context, text string) (reply Reply, err error) {
	if c.rec.Stage.Is(interview.StageEnded) {
		return c.reply(""), ErrConversationEnded
	}

	snapshot := c.rec.Clone()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("turn panicked",
				zap.String(logger.FieldStage, snapshot.Stage.Tag()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			reply, err = c.abort(snapshot), nil
		}
	}()

	c.rec.Append(interview.RoleUser, text, c.now())

	msg, err := c.step(ctx, text)
	if err != nil {
		c.logger.Error("turn aborted",
			zap.String(logger.FieldStage, snapshot.Stage.Tag()),
			zap.Error(err),
		)
		return c.abort(snapshot), nil
	}

	c.rec.Append(interview.RoleAssistant, msg, c.now())
	return c.reply(msg), nil
}

func (c *Conversation) step(ctx context.Context, text string) (string, error) {
	stage := c.rec.Stage

	switch stage.Kind {
	case interview.StageGreeting, interview.StageCollecting, interview.StageTechnical:
		if c.keywords.match(text) {
			c.logger.Info("end keyword received", zap.String(logger.FieldStage, stage.Tag()))
			return c.enterClosing("", EndReasonKeyword)
		}
	}

	switch stage.Kind {
	case interview.StageGreeting:
		first := interview.RequiredFields()[0]
		c.rec.Stage = interview.Collecting(first)
		return c.askField(first, "Great, let's begin.", "")
	case interview.StageCollecting:
		if c.rec.Pending != nil {
			return c.confirm(ctx, text)
		}
		return c.collect(ctx, stage.Field, text)
	case interview.StageTechnical:
		return c.answer(stage.Index, text)
	case interview.StageClosing:
		return c.farewell(text)
	default:
		return "", fmt.Errorf("%w: unexpected stage %q", ErrTurnAborted, stage.Tag())
	}
}

func (c *Conversation) collect(ctx context.Context, field interview.Field, text string) (string, error) {
	value, err := interview.Extract(field, text)
	if err != nil && interview.LooksLikeQuestion(text) {
		// A question is answered and the field asked again without using a retry.
		c.logger.Debug("candidate asked a question",
			zap.String(logger.FieldStage, c.rec.Stage.Tag()),
		)
		return c.askField(field, "", questionReply(text))
	}

	if err != nil {
		c.rec.Retries[field]++
		if c.rec.Retries[field] < c.cfg.RetryCap {
			c.logger.Debug("answer rejected",
				zap.String(logger.FieldStage, c.rec.Stage.Tag()),
				zap.Int("attempt", c.rec.Retries[field]),
				zap.Error(err),
			)
			return c.askField(field, "", hint(field, err))
		}

		c.logger.Info("retry cap reached, field recorded as unknown",
			zap.String(logger.FieldStage, c.rec.Stage.Tag()),
			zap.Int("attempts", c.rec.Retries[field]),
		)
		c.rec.Profile[field] = interview.UnknownValue()
		return c.advance(ctx, field, "No problem, let's move on.")
	}

	if c.registered(ctx, field, value) {
		c.rec.Pending = &interview.Pending{Field: field, Value: value}
		return c.askConfirm(field, "")
	}

	c.rec.Profile[field] = value
	return c.advance(ctx, field, acknowledge(field, c.rec.Profile))
}

// advance moves past an answered field.
func (c *Conversation) advance(ctx context.Context, field interview.Field, ack string) (string, error) {
	if next, ok := interview.NextField(field); ok {
		c.rec.Stage = interview.Collecting(next)
		return c.askField(next, ack, "")
	}
	return c.startTechnical(ctx, ack)
}

// registered reports whether another session already holds this contact value.
// Lookup failures are logged and treated as no match.
func (c *Conversation) registered(ctx context.Context, field interview.Field, value interview.Value) bool {
	if c.finder == nil {
		return false
	}

	var email, phone string
	switch field {
	case interview.FieldEmail:
		email = value.Text
	case interview.FieldPhone:
		phone = value.Text
	default:
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SaveTimeout)
	defer cancel()

	ids, err := c.finder.FindByContact(ctx, email, phone)
	if err != nil {
		if !errors.Is(err, store.ErrUnsupported) {
			c.logger.Warn("looking up earlier applications",
				zap.String(logger.FieldStage, c.rec.Stage.Tag()),
				zap.Error(err),
			)
		}
		return false
	}

	for _, id := range ids {
		if id != c.rec.SessionID {
			c.logger.Info("contact matches an earlier application",
				zap.String(logger.FieldStage, c.rec.Stage.Tag()),
				zap.String("earlier_session_id", id),
			)
			return true
		}
	}
	return false
}

// confirm handles the answer to whether the candidate applied before.
func (c *Conversation) confirm(ctx context.Context, text string) (string, error) {
	pending := c.rec.Pending

	switch yesNo(text) {
	case answerYes:
		c.rec.Pending = nil
		c.rec.Stage = interview.Ended()
		c.rec.EndReason = EndReasonDuplicate
		return c.render(interview.TemplateFarewell, interview.TemplateData{
			Name:   c.rec.Profile.FirstName(),
			Answer: alreadyApplied,
		})
	case answerNo:
		c.rec.Pending = nil
		c.rec.Profile[pending.Field] = pending.Value
		return c.advance(ctx, pending.Field, acknowledge(pending.Field, c.rec.Profile))
	default:
		return c.askConfirm(pending.Field, "Please answer yes or no.")
	}
}

func (c *Conversation) askConfirm(field interview.Field, hint string) (string, error) {
	return c.render(interview.TemplateConfirm, interview.TemplateData{
		Name:       c.rec.Profile.FirstName(),
		Field:      string(field),
		FieldLabel: field.Label(),
		Hint:       hint,
	})
}

func (c *Conversation) startTechnical(ctx context.Context, ack string) (string, error) {
	techs := c.rec.Profile.Technologies()
	years, _ := c.rec.Profile.Years()

	batch := c.questions.Generate(ctx, questions.Request{
		Technologies:    techs,
		Count:           questions.Count(len(techs), c.cfg.PerTechnology, c.cfg.MaxQuestions),
		ExperienceYears: years,
	})

	c.rec.Questions = batch.Questions
	c.rec.QuestionsSource = metrics.SourceModel
	if batch.Fallback {
		c.rec.QuestionsSource = metrics.SourceFallback
	}

	c.logger.Info("technical questions prepared",
		zap.Int("count", len(batch.Questions)),
		zap.String("source", c.rec.QuestionsSource),
	)

	if len(c.rec.Questions) == 0 {
		return c.enterClosing(ack, EndReasonCompleted)
	}
	c.rec.Stage = interview.Technical(0)
	return c.askTechnical(0, ack)
}

func (c *Conversation) answer(index int, text string) (string, error) {
	if index < 0 || index >= len(c.rec.Questions) {
		return "", fmt.Errorf("%w: no question %d of %d", ErrTurnAborted, index, len(c.rec.Questions))
	}

	q := c.rec.Questions[index]
	answer := strings.TrimSpace(text)
	c.rec.Answers = append(c.rec.Answers, interview.Answer{
		Index:      index,
		Technology: q.Technology,
		Question:   q.Text,
		Text:       answer,
		AnsweredAt: c.now(),
	})

	fb := feedback(answer)
	if index+1 < len(c.rec.Questions) {
		c.rec.Stage = interview.Technical(index + 1)
		return c.askTechnical(index+1, fb)
	}
	return c.enterClosing(fb, EndReasonCompleted)
}

func (c *Conversation) enterClosing(fb, reason string) (string, error) {
	c.rec.Pending = nil
	c.rec.Stage = interview.Closing()
	c.rec.EndReason = reason
	return c.render(interview.TemplateClosing, interview.TemplateData{
		Name:     c.rec.Profile.FirstName(),
		Feedback: fb,
	})
}

func (c *Conversation) farewell(text string) (string, error) {
	c.rec.Stage = interview.Ended()
	if c.rec.EndReason == "" {
		c.rec.EndReason = EndReasonCompleted
	}
	return c.render(interview.TemplateFarewell, interview.TemplateData{
		Name:   c.rec.Profile.FirstName(),
		Answer: closingAnswer(text),
	})
}

func (c *Conversation) askField(field interview.Field, ack, hint string) (string, error) {
	return c.render(interview.TemplateAskField, interview.TemplateData{
		Name:       c.rec.Profile.FirstName(),
		Field:      string(field),
		FieldLabel: field.Label(),
		Ack:        ack,
		Hint:       hint,
	})
}

func (c *Conversation) askTechnical(index int, fb string) (string, error) {
	q := c.rec.Questions[index]
	return c.render(interview.TemplateAskTechnical, interview.TemplateData{
		Name:       c.rec.Profile.FirstName(),
		Question:   q.Text,
		Technology: q.Technology,
		Number:     index + 1,
		Total:      len(c.rec.Questions),
		Feedback:   fb,
	})
}

func (c *Conversation) render(kind interview.TemplateKind, data interview.TemplateData) (string, error) {
	msg, err := c.renderer.Render(kind, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTurnAborted, err)
	}
	return msg, nil
}

func (c *Conversation) abort(snapshot *interview.Record) Reply {
	c.rec = snapshot

	msg, err := c.renderer.Render(interview.TemplateApology, interview.TemplateData{Name: c.rec.Profile.FirstName()})
	if err != nil {
		msg = fallbackApology
	}

	reply := c.reply(msg)
	reply.Aborted = true
	return reply
}

func (c *Conversation) reply(msg string) Reply {
	return Reply{
		Message:           msg,
		Stage:             c.rec.Stage,
		Progress:          Progress(c.rec),
		ProfileCompletion: ProfileCompletion(c.rec.Profile),
		Ended:             c.rec.Stage.Is(interview.StageEnded),
	}
}

// Progress estimates how far the screening is, in percent.
func Progress(rec *interview.Record) int {
	total := len(interview.RequiredFields())

	switch rec.Stage.Kind {
	case interview.StageGreeting, interview.StageCollecting:
		return 80 * rec.Profile.Collected() / total
	case interview.StageTechnical:
		n := len(rec.Questions)
		if n == 0 {
			return 80
		}
		return 80 + 20*rec.Stage.Index/n
	default:
		return 100
	}
}

// ProfileCompletion is the share of collected required fields, in percent.
func ProfileCompletion(p interview.Profile) int {
	return p.Collected() * 100 / len(interview.RequiredFields())
}
