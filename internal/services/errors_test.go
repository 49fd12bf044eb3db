package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(ErrTransient, "extraction", "download", "stream source", base)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "render", "mux", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected nil marker to default to ErrTransient, got %v", err)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if got := err.Error(); got != "validation error: service failure" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(Wrap(ErrValidation, "editor", "validate", "bad range", nil)) {
		t.Fatal("expected validation classification")
	}
	if !IsValidation(Wrap(ErrConfiguration, "config", "load", "", nil)) {
		t.Fatal("expected configuration to classify as validation")
	}
	if IsValidation(Wrap(ErrTimeout, "probe", "inspect", "", nil)) {
		t.Fatal("timeout must not classify as validation")
	}
}

func TestIsResource(t *testing.T) {
	if !IsResource(Wrap(ErrResource, "guard", "admit", "memory ceiling", nil)) {
		t.Fatal("expected resource classification")
	}
	if IsResource(Wrap(ErrTransient, "guard", "admit", "", nil)) {
		t.Fatal("transient must not classify as resource")
	}
}
