package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/scoring"
)

const (
	FieldRunID     = "run_id"
	FieldNow       = "now"
	FieldCandidate = "candidate"
	FieldVertical  = "vertical"
	FieldStage     = "stage"
	FieldJob       = "job"
	FieldAccount   = "account"
	FieldTotal     = "total"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting to a
// no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RunFields identify one scoring pass.
func RunFields(runID string, now time.Time) []zap.Field {
	fields := StringFields(StringField{Key: FieldRunID, Value: runID})
	if !now.IsZero() {
		fields = append(fields, zap.Time(FieldNow, now))
	}
	return fields
}

func CandidateFields(c *roster.Candidate) []zap.Field {
	if c == nil {
		return nil
	}
	return StringFields(
		StringField{Key: FieldCandidate, Value: c.Name},
		StringField{Key: FieldVertical, Value: c.Vertical},
		StringField{Key: FieldStage, Value: string(c.Readiness)},
	)
}

func JobFields(j *roster.Job) []zap.Field {
	if j == nil {
		return nil
	}
	return StringFields(
		StringField{Key: FieldJob, Value: j.Title},
		StringField{Key: FieldAccount, Value: j.Account},
	)
}

// MatchFields describe a scored pair with its total.
func MatchFields(r scoring.MatchResult) []zap.Field {
	fields := StringFields(
		StringField{Key: FieldCandidate, Value: r.Candidate.Name},
		StringField{Key: FieldJob, Value: r.Job.Title},
		StringField{Key: FieldAccount, Value: r.Job.Account},
	)
	return append(fields, zap.Float64(FieldTotal, r.Total))
}

// AIFields returns standard zap fields that describe the AI provider and model.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}
