package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransport, "remote", "submit", "request failed", cause)

	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport marker in %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved in %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "remote", "status", "", nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("nil marker should default to transport, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrTransport, "remote", "submit", "", nil), true},
		{Wrap(ErrRateLimited, "remote", "submit", "", nil), true},
		{Wrap(ErrMalformed, "remote", "submit", "no id", nil), false},
		{Wrap(ErrFatal, "remote", "submit", "401", nil), false},
		{fmt.Errorf("plain"), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
