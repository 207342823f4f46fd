package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log keys shared across packages.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldSession  = "session_id"
	FieldStage    = "stage"
)

// pairs turns key/value pairs into zap string fields. Pairs with a blank key
// or value are dropped.
func pairs(kv ...string) []zap.Field {
	result := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key := strings.TrimSpace(kv[i])
		value := strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describes the text generation provider and model.
func CommonFields(provider, model string) []zap.Field {
	return pairs(FieldProvider, provider, FieldModel, model)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// SessionFields identifies a screening session and its current stage tag.
func SessionFields(sessionID, stage string) []zap.Field {
	return pairs(FieldSession, sessionID, FieldStage, stage)
}

// WithSession scopes logger to one screening session.
func WithSession(logger *zap.Logger, sessionID string) *zap.Logger {
	return WithFields(logger, pairs(FieldSession, sessionID)...)
}
