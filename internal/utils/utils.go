package utils

import (
	"context"
	"strings"
	"time"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	return WaitForFunc(ctx, d, sleep)
}

// WaitForFunc is WaitFor with a custom sleep function, used by callers that
// stub sleeping in tests.
func WaitForFunc(ctx context.Context, d time.Duration, sleepFn func(time.Duration)) error {
	if d <= 0 {
		return nil
	}
	if sleepFn == nil {
		sleepFn = sleep
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleepFn(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
