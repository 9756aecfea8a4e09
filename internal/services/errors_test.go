package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(ErrStorage, "versions", "save snapshot", "could not persist version 3", base)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"versions", "save snapshot", "could not persist version 3", "disk full"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapDefaultsToExternalTool(t *testing.T) {
	err := Wrap(nil, "image", "generate", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool default, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{Wrap(ErrStorage, "state", "mark done", "", nil), true},
		{Wrap(ErrStale, "pipeline", "schedule", "", nil), true},
		{Wrap(ErrConfiguration, "config", "load", "", nil), true},
		{Wrap(ErrExternalTool, "image", "generate", "", nil), false},
		{Wrap(ErrSchema, "spec", "validate", "", nil), false},
	}
	for _, tc := range cases {
		if got := Fatal(tc.err); got != tc.fatal {
			t.Fatalf("Fatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}
