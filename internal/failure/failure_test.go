package failure_test

import (
	"errors"
	"strings"
	"testing"

	"deltae/internal/failure"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := failure.Wrap(failure.ErrIO, "source", "open", "reference.y4m", base)
	if !errors.Is(err, failure.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"source", "open", "reference.y4m"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToFormat(t *testing.T) {
	err := failure.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, failure.ErrFormat) {
		t.Fatalf("expected format marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{failure.Wrap(failure.ErrFormat, "y4m", "header", "bad", nil), "format"},
		{failure.Wrap(failure.ErrIO, "source", "read", "", errors.New("eof")), "io"},
		{failure.Wrap(failure.ErrNumeric, "quality", "score", "", nil), "numeric"},
		{failure.Wrap(failure.ErrMismatch, "pipeline", "headers", "", nil), "mismatch"},
		{failure.Wrap(failure.ErrConfiguration, "config", "", "", nil), "configuration"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := failure.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
