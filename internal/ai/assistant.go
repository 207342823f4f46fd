package ai

import (
	"context"
	"errors"
	"strings"
)

// TextGenerator produces text for a system instruction and a user prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, systemInstruction, prompt string) (string, error)
	Model() string
}

var (
	ErrTimeout           = errors.New("generation timed out")
	ErrMalformedResponse = errors.New("malformed generation response")
	ErrAuthFailure       = errors.New("generation auth or quota failure")
	ErrUnavailable       = errors.New("generation provider unavailable")
)

// Classify maps an arbitrary generation error onto one of the sentinel errors.
// Errors already wrapping a sentinel are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrAuthFailure),
		errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"401", "403", "unauthorized", "permission", "api key", "quota", "resource_exhausted"} {
		if strings.Contains(msg, marker) {
			return errors.Join(ErrAuthFailure, err)
		}
	}
	return errors.Join(ErrUnavailable, err)
}

// Kind returns a short label for a classified error, used in logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrAuthFailure):
		return "auth"
	default:
		return "unavailable"
	}
}
