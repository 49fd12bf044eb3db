package services

import "context"

type contextKey string

const (
	fingerprintKey contextKey = "fingerprint"
	componentKey   contextKey = "component"
	requestIDKey   contextKey = "request_id"
)

// WithFingerprint annotates context with the job fingerprint.
func WithFingerprint(ctx context.Context, fingerprint string) context.Context {
	if fingerprint == "" {
		return ctx
	}
	return context.WithValue(ctx, fingerprintKey, fingerprint)
}

// FingerprintFromContext extracts the job fingerprint if present.
func FingerprintFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fingerprintKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithComponent annotates context with the component name performing work.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(componentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
