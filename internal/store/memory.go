package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/spigell/hh-screener/internal/interview"
)

// Memory keeps snapshots in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*interview.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*interview.Record)}
}

func (m *Memory) Save(ctx context.Context, rec *interview.Record) error {
	if rec == nil {
		return errors.New("record is required")
	}
	if err := ctx.Err(); err != nil {
		return classify("memory save", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.SessionID] = rec.Clone()
	return nil
}

func (m *Memory) Load(ctx context.Context, sessionID string) (*interview.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("memory load", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[sessionID]
	if !ok {
		return nil, classify("memory load", ErrNotFound)
	}
	return rec.Clone(), nil
}

func (m *Memory) FindByContact(ctx context.Context, email, phone string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("memory find", err)
	}

	email, phone = normalizeEmail(email), normalizePhone(phone)
	if email == "" && phone == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, rec := range m.records {
		recEmail, recPhone := contactOf(rec)
		if (email != "" && recEmail == email) || (phone != "" && recPhone == phone) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Len returns the number of stored sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
