// Package store persists screening session records.
package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/metrics"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrUnavailable = errors.New("store unavailable")
	ErrTimeout     = errors.New("store timeout")
	// ErrUnsupported is returned by wrappers whose underlying store cannot search.
	ErrUnsupported = errors.New("operation not supported by store")
)

// Store saves and loads session snapshots. Save must not retain rec and Load
// returns a copy owned by the caller.
type Store interface {
	Save(ctx context.Context, rec *interview.Record) error
	Load(ctx context.Context, sessionID string) (*interview.Record, error)
}

// Finder looks up stored sessions by candidate contact details. Email is
// compared lower-cased, phone as digits only. Blank arguments match nothing.
type Finder interface {
	FindByContact(ctx context.Context, email, phone string) ([]string, error)
}

// contactOf returns the normalized email and phone of rec's profile.
func contactOf(rec *interview.Record) (string, string) {
	email := normalizeEmail(rec.Profile[interview.FieldEmail].Text)
	phone := normalizePhone(rec.Profile[interview.FieldPhone].Text)
	return email, phone
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// classify wraps err with one of the store sentinels.
func classify(op string, err error) error {
	var netErr net.Error

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
}

type instrumented struct {
	next    Store
	backend string
	metrics metrics.Recorder
}

// Instrument reports the duration and outcome of every call to rec.
func Instrument(s Store, backend string, rec metrics.Recorder) Store {
	return &instrumented{next: s, backend: backend, metrics: metrics.OrNop(rec)}
}

func (i *instrumented) Save(ctx context.Context, rec *interview.Record) error {
	start := time.Now()
	err := i.next.Save(ctx, rec)
	i.metrics.ObserveStore(i.backend, "save", status(err), time.Since(start))
	return err
}

func (i *instrumented) Load(ctx context.Context, sessionID string) (*interview.Record, error) {
	start := time.Now()
	rec, err := i.next.Load(ctx, sessionID)
	st := status(err)
	if errors.Is(err, ErrNotFound) {
		st = "not_found"
	}
	i.metrics.ObserveStore(i.backend, "load", st, time.Since(start))
	return rec, err
}

func (i *instrumented) FindByContact(ctx context.Context, email, phone string) ([]string, error) {
	finder, ok := i.next.(Finder)
	if !ok {
		return nil, ErrUnsupported
	}

	start := time.Now()
	ids, err := finder.FindByContact(ctx, email, phone)
	i.metrics.ObserveStore(i.backend, "find", status(err), time.Since(start))
	return ids, err
}

func status(err error) string {
	if err != nil {
		return metrics.StatusError
	}
	return metrics.StatusSuccess
}
