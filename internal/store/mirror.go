package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spigell/hh-screener/internal/interview"

	"go.uber.org/zap"
)

// Mirror writes to a primary store and a local backup. A save succeeds when
// either write succeeds; loads fall back to the backup.
type Mirror struct {
	primary Store
	backup  Store
	logger  *zap.Logger
}

func NewMirror(primary, backup Store, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{primary: primary, backup: backup, logger: logger}
}

func (m *Mirror) Save(ctx context.Context, rec *interview.Record) error {
	primaryErr := m.primary.Save(ctx, rec)
	backupErr := m.backup.Save(ctx, rec)

	switch {
	case primaryErr == nil && backupErr == nil:
		return nil
	case primaryErr != nil && backupErr != nil:
		return fmt.Errorf("saving to primary and backup: %w", errors.Join(primaryErr, backupErr))
	case primaryErr != nil:
		m.logger.Warn("primary store save failed, kept backup copy",
			zap.String("session_id", rec.SessionID),
			zap.Error(primaryErr),
		)
	default:
		m.logger.Warn("backup store save failed",
			zap.String("session_id", rec.SessionID),
			zap.Error(backupErr),
		)
	}
	return nil
}

// Load reads both copies and returns the more recent one, so a save that
// only reached the backup is not shadowed by an older primary copy.
func (m *Mirror) Load(ctx context.Context, sessionID string) (*interview.Record, error) {
	primary, primaryErr := m.primary.Load(ctx, sessionID)
	backup, backupErr := m.backup.Load(ctx, sessionID)

	switch {
	case primaryErr == nil && backupErr == nil:
		if newer(backup, primary) {
			m.logger.Debug("backup copy is newer than primary",
				zap.String("session_id", sessionID),
				zap.Time("primary_updated_at", primary.UpdatedAt),
				zap.Time("backup_updated_at", backup.UpdatedAt),
			)
			return backup, nil
		}
		return primary, nil
	case primaryErr == nil:
		return primary, nil
	case backupErr == nil:
		m.logger.Debug("loaded session from backup store",
			zap.String("session_id", sessionID),
			zap.NamedError("primary_error", primaryErr),
		)
		return backup, nil
	}

	primaryMissing := errors.Is(primaryErr, ErrNotFound)
	backupMissing := errors.Is(backupErr, ErrNotFound)
	switch {
	case primaryMissing && backupMissing:
		return nil, primaryErr
	case primaryMissing:
		return nil, fmt.Errorf("loading from backup (primary: %v): %w", primaryErr, backupErr)
	case backupMissing:
		return nil, fmt.Errorf("loading from primary (backup: %v): %w", backupErr, primaryErr)
	default:
		return nil, fmt.Errorf("loading from primary and backup: %w", errors.Join(primaryErr, backupErr))
	}
}

// FindByContact merges the matches of every store that can search.
func (m *Mirror) FindByContact(ctx context.Context, email, phone string) ([]string, error) {
	var (
		ids      []string
		searched bool
		errs     []error
	)
	for _, s := range []Store{m.primary, m.backup} {
		finder, ok := s.(Finder)
		if !ok {
			continue
		}
		found, err := finder.FindByContact(ctx, email, phone)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		searched = true
		ids = append(ids, found...)
	}

	if !searched {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, ErrUnsupported
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// newer reports whether a holds a later revision than b.
func newer(a, b *interview.Record) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return len(a.Transcript) > len(b.Transcript)
}
