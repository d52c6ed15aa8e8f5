package errcat

import (
	"errors"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(Server, ServerInvalidPort, "port %d out of range", 70000)
	if err.Category != Server || err.Code != ServerInvalidPort {
		t.Fatalf("unexpected category/code: %+v", err)
	}
	if err.Error() != "port 70000 out of range" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestErrorFallsBackToCategoryCode(t *testing.T) {
	err := &Error{Category: Rule, Code: RuleInvalidIndex}
	if err.Error() != "rule error 0" {
		t.Fatalf("unexpected fallback message: %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, Hook, HookInvalidPath, "cannot stat hook path")
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Fatal("expected Unwrap to return the original cause")
	}
}

func TestUnknownAliasesBot(t *testing.T) {
	if Unknown != Bot {
		t.Fatalf("Unknown category must alias bot, got %q", Unknown)
	}
}
