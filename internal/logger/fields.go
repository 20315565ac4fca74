package logger

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Standard field names for structured logging.
const (
	FieldSessionID = "session_id"
	FieldStage     = "stage"
	FieldRole      = "role"
	FieldWorkerID  = "worker_id"
	FieldAttempt   = "attempt"
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldPreview   = "preview"
	FieldDuration  = "duration"
	FieldCount     = "count"
)

func SessionID(id uuid.UUID) zap.Field {
	return zap.String(FieldSessionID, id.String())
}

func Stage(stage string) zap.Field {
	return zap.String(FieldStage, stage)
}

func Role(role string) zap.Field {
	return zap.String(FieldRole, role)
}

// Preview logs at most 200 runes of a prompt or reply.
func Preview(text string) zap.Field {
	return zap.String(FieldPreview, TruncateForLog(text, 200))
}

// WithCommonFields attaches provider and model to the logger, skipping empty values.
func WithCommonFields(l *zap.Logger, provider, model string) *zap.Logger {
	l = OrNop(l)
	var fields []zap.Field
	if provider != "" {
		fields = append(fields, zap.String(FieldProvider, provider))
	}
	if model != "" {
		fields = append(fields, zap.String(FieldModel, model))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
