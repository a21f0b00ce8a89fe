package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across Heimdall.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldEvaluationID = "evaluation_id"
	FieldRequestID    = "request_id"
	FieldClientID     = "client_id"

	// Components
	FieldComponent = "component"
	FieldConverter = "converter"
	FieldService   = "service"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"

	// Domain
	FieldFormat   = "format"
	FieldProfiles = "profiles"
	FieldControls = "controls"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldStartTime  = "start_time"
	FieldEndTime    = "end_time"

	// Errors
	FieldError     = "error"
	FieldErrorCode = "error_code"
	FieldErrorType = "error_type"

	// Counts and sizes
	FieldCount     = "count"
	FieldSize      = "size_bytes"
	FieldBatchSize = "batch_size"

	// Status
	FieldStatus  = "status"
	FieldHealthy = "healthy"
	FieldState   = "state"

	// Files and paths
	FieldFile     = "file"
	FieldFilename = "filename"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
	FieldHost    = "host"
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey    contextKey = "logger_request_id"
	evaluationIDKey contextKey = "logger_evaluation_id"
	componentKey    contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithEvaluationID adds an evaluation ID to the context for logging
func WithEvaluationID(ctx context.Context, evaluationID string) context.Context {
	return context.WithValue(ctx, evaluationIDKey, evaluationID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if evaluationID, ok := ctx.Value(evaluationIDKey).(string); ok && evaluationID != "" {
		fields = append(fields, FieldEvaluationID, evaluationID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
// Use this to get a logger that automatically includes request_id, evaluation_id, etc.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type DirWatcher struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewDirWatcher() *DirWatcher {
//	    return &DirWatcher{
//	        logger: logger.ComponentLogger("intake.watcher"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
// Use for sub-operations that need extra context fields.
//
// Example:
//
//	loadLogger := logger.ChildLogger(baseLogger, "evaluation_id", ev.ID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
