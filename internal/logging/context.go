package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldItemKey is the standardized structured logging key for work item identifiers.
	FieldItemKey = "item_key"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldEventType marks lifecycle events (stage_start, stage_complete, item_failed).
	FieldEventType = "event_type"
)

type contextKey string

const (
	stageContextKey   contextKey = "stage"
	itemKeyContextKey contextKey = "item_key"
	runIDContextKey   contextKey = "run_id"
)

// WithStage annotates the context with the active pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageContextKey, stage)
}

// WithItemKey annotates the context with the active work item key.
func WithItemKey(ctx context.Context, key string) context.Context {
	key = strings.TrimSpace(key)
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, itemKeyContextKey, key)
}

// WithRunID annotates the context with the pipeline run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDContextKey, runID)
}

// StageFromContext returns the stage recorded on the context, if any.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, stageContextKey)
}

// ItemKeyFromContext returns the work item key recorded on the context, if any.
func ItemKeyFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, itemKeyContextKey)
}

// RunIDFromContext returns the run identifier recorded on the context, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, runIDContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if runID, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, runID))
	}
	if stage, ok := StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if key, ok := ItemKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemKey, key))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
