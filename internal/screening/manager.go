package screening

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/store"

	"go.uber.org/zap"
)

// WarningNotSaved is reported with turns whose session could not be persisted.
const WarningNotSaved = "progress not saved"

// ErrSessionNotFound is returned for ids that are neither active nor stored.
var ErrSessionNotFound = errors.New("session not found")

// TurnResult is what the UI layer receives for every turn.
type TurnResult struct {
	SessionID         string          `json:"session_id"`
	Message           string          `json:"message"`
	Stage             interview.Stage `json:"-"`
	StageTag          string          `json:"stage"`
	Progress          int             `json:"progress"`
	ProfileCompletion int             `json:"profile_completion"`
	Ended             bool            `json:"ended"`
	Warning           string          `json:"warning,omitempty"`
	SaveErr           error           `json:"-"`
}

type session struct {
	mu    sync.Mutex
	conv  *Conversation
	dirty bool
}

// Manager owns the active sessions. Turns of one session are handled one at
// a time; different sessions proceed concurrently.
type Manager struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(cfg Config, deps Deps) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("creating session manager: %w", err)
	}

	return &Manager{
		cfg:      cfg.withDefaults(),
		deps:     deps.withDefaults(),
		sessions: make(map[string]*session),
	}, nil
}

// Start opens a new session and returns its greeting.
func (m *Manager) Start(ctx context.Context) (TurnResult, error) {
	rec := interview.NewRecord(m.deps.NewID(), m.deps.Now())

	conv, err := NewConversation(rec, m.cfg, m.deps)
	if err != nil {
		return TurnResult{}, err
	}

	reply, err := conv.Start()
	if err != nil {
		return TurnResult{}, fmt.Errorf("starting session: %w", err)
	}

	s := &session{conv: conv}
	m.mu.Lock()
	m.sessions[rec.SessionID] = s
	m.mu.Unlock()

	m.deps.Metrics.SessionStarted()
	m.deps.Logger.Info("session started", logger.SessionFields(rec.SessionID, reply.Stage.Tag())...)

	res := m.result(rec.SessionID, reply)
	if m.cfg.Checkpoint {
		s.mu.Lock()
		m.save(ctx, s, &res)
		s.mu.Unlock()
	}
	return res, nil
}

// Resume reattaches to a stored or active session and repeats its last
// assistant message.
func (m *Manager) Resume(ctx context.Context, sessionID string) (TurnResult, error) {
	s, err := m.session(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv.Stage().Is(interview.StageEnded) {
		if !s.dirty {
			m.forget(sessionID)
		}
		return TurnResult{}, fmt.Errorf("session %s: %w", sessionID, ErrConversationEnded)
	}

	reply, err := s.conv.Start()
	if err != nil {
		return TurnResult{}, fmt.Errorf("resuming session: %w", err)
	}
	return m.result(sessionID, reply), nil
}

// Submit handles one utterance for the session. Sessions unknown to this
// manager are resumed from the store.
func (m *Manager) Submit(ctx context.Context, sessionID, text string) (TurnResult, error) {
	s, err := m.session(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.conv.Stage()
	reply, err := s.conv.Submit(ctx, text)
	if err != nil {
		if errors.Is(err, ErrConversationEnded) && !s.dirty {
			m.forget(sessionID)
		}
		return m.result(sessionID, reply), fmt.Errorf("session %s: %w", sessionID, err)
	}

	m.deps.Metrics.ObserveTurn(string(before.Kind))
	res := m.result(sessionID, reply)

	if reply.Aborted {
		m.deps.Logger.Warn("turn aborted", logger.SessionFields(sessionID, before.Tag())...)
		return res, nil
	}

	entered := reply.Stage.Kind != before.Kind &&
		(reply.Stage.Is(interview.StageClosing) || reply.Stage.Is(interview.StageEnded))
	if entered || m.cfg.Checkpoint || s.dirty {
		m.save(ctx, s, &res)
	}

	if reply.Ended {
		reason := s.conv.rec.EndReason
		m.deps.Metrics.SessionEnded(reason)
		m.deps.Logger.Info("session ended",
			append(logger.SessionFields(sessionID, reply.Stage.Tag()), zap.String("reason", reason))...,
		)
		if !s.dirty {
			m.forget(sessionID)
		}
	}

	return res, nil
}

// Flush retries saving a session whose last save failed.
func (m *Manager) Flush(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res TurnResult
	m.save(ctx, s, &res)
	if res.SaveErr != nil {
		return res.SaveErr
	}
	if s.conv.Stage().Is(interview.StageEnded) {
		m.forget(sessionID)
	}
	return nil
}

// Record returns a snapshot of an active or stored session.
func (m *Manager) Record(ctx context.Context, sessionID string) (*interview.Record, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()

	if ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.conv.Record(), nil
	}
	return m.load(ctx, sessionID)
}

// Active returns the number of sessions held in memory.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) session(ctx context.Context, sessionID string) (*session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	rec, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	conv, err := NewConversation(rec, m.cfg, m.deps)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}
	s = &session{conv: conv}
	m.sessions[sessionID] = s
	m.deps.Logger.Info("session resumed", logger.SessionFields(sessionID, rec.Stage.Tag())...)
	return s, nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*interview.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.SaveTimeout)
	defer cancel()

	rec, err := m.deps.Store.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return rec, nil
}

// save persists the session. Failures mark it dirty and are reported in res.
func (m *Manager) save(ctx context.Context, s *session, res *TurnResult) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.SaveTimeout)
	defer cancel()

	rec := s.conv.Record()
	if err := m.deps.Store.Save(ctx, rec); err != nil {
		s.dirty = true
		res.Warning = WarningNotSaved
		res.SaveErr = err
		m.deps.Logger.Warn("saving session",
			append(logger.SessionFields(rec.SessionID, rec.Stage.Tag()), zap.Error(err))...,
		)
		return
	}

	s.dirty = false
	m.deps.Logger.Debug("session saved", logger.SessionFields(rec.SessionID, rec.Stage.Tag())...)
}

func (m *Manager) forget(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

func (m *Manager) result(sessionID string, reply Reply) TurnResult {
	return TurnResult{
		SessionID:         sessionID,
		Message:           reply.Message,
		Stage:             reply.Stage,
		StageTag:          reply.Stage.Tag(),
		Progress:          reply.Progress,
		ProfileCompletion: reply.ProfileCompletion,
		Ended:             reply.Ended,
	}
}
