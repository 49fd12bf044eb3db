package logging

import (
	"context"
	"log/slog"

	"clipforge/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldFingerprint is the standardized structured logging key for job fingerprints.
	FieldFingerprint = "fingerprint"
	// FieldKind is the standardized structured logging key for job kinds.
	FieldKind = "kind"
	// FieldStrategy is the standardized structured logging key for extraction strategy names.
	FieldStrategy = "strategy"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if fingerprint, ok := services.FingerprintFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFingerprint, fingerprint))
	}
	if component, ok := services.ComponentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldComponent, component))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
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
