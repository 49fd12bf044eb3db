package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"clipforge/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewDefaultsToConsole(t *testing.T) {
	logger, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestConsoleHandlerWritesAttrs(t *testing.T) {
	var out syncBuilder
	handler := &consoleHandler{mu: &sync.Mutex{}, out: &out, level: slog.LevelInfo}
	logger := slog.New(handler).With(String("component", "render"))

	logger.Info("frame batch complete", Int("frames", 12))

	line := out.String()
	if !strings.Contains(line, "frame batch complete") {
		t.Fatalf("missing message in %q", line)
	}
	if !strings.Contains(line, "component=render") || !strings.Contains(line, "frames=12") {
		t.Fatalf("missing attrs in %q", line)
	}
}

func TestWithContextAddsFingerprint(t *testing.T) {
	var out syncBuilder
	handler := &consoleHandler{mu: &sync.Mutex{}, out: &out, level: slog.LevelInfo}

	ctx := services.WithFingerprint(context.Background(), "abc123")
	logger := WithContext(ctx, slog.New(handler))
	logger.Info("job started")

	if !strings.Contains(out.String(), "fingerprint=abc123") {
		t.Fatalf("expected fingerprint attr, got %q", out.String())
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected no-op logger, got nil")
	}
	logger.Info("must not panic")
}

type syncBuilder struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuilder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuilder) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}
