package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := Conflict("slot no longer available")
	wrapped := fmt.Errorf("accept: %w", base)
	if got := KindOf(wrapped); got != KindConflict {
		t.Fatalf("kind=%s want=%s", got, KindConflict)
	}
	if got := MessageOf(wrapped); got != "slot no longer available" {
		t.Fatalf("message=%q", got)
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("connection refused")
	if got := KindOf(err); got != KindInfrastructure {
		t.Fatalf("kind=%s want=%s", got, KindInfrastructure)
	}
	if got := MessageOf(err); got != "internal storage error" {
		t.Fatalf("message=%q", got)
	}
	if KindOf(nil) != "" {
		t.Fatalf("nil error should have no kind")
	}
}

func TestInfrastructure_PassesThroughClassified(t *testing.T) {
	nf := NotFound("bid not found")
	if got := Infrastructure(nf); got != error(nf) {
		t.Fatalf("classified error was rewrapped: %v", got)
	}
	raw := errors.New("disk full")
	got := Infrastructure(raw)
	if KindOf(got) != KindInfrastructure {
		t.Fatalf("kind=%s", KindOf(got))
	}
	if !errors.Is(got, raw) {
		t.Fatalf("cause lost")
	}
}

func TestIs_MatchesKindAndMessage(t *testing.T) {
	sentinel := Conflict("bid is no longer pending")
	other := Conflict("bid is no longer pending")
	if !errors.Is(fmt.Errorf("x: %w", other), sentinel) {
		t.Fatalf("expected match")
	}
	if errors.Is(InvalidState("bid is no longer pending"), sentinel) {
		t.Fatalf("different kinds must not match")
	}
}
