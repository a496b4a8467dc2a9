package failure

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestErrorIsMatchesSentinelForKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"file_not_found", FileNotFound("upload", "/x", os.ErrNotExist), ErrFileNotFound, KindFileNotFound},
		{"network", Network("upload", errors.New("connection refused")), ErrNetwork, KindNetwork},
		{"server", Server("upload", 500, nil), ErrServer, KindServer},
		{"archive", ArchiveRead("extract", "/a.zip", errors.New("not a valid zip file")), ErrArchiveRead, KindArchiveRead},
		{"io", IO("extract", "/root/a", errors.New("disk full")), ErrIO, KindIO},
	}

	all := []error{ErrFileNotFound, ErrNetwork, ErrServer, ErrArchiveRead, ErrIO}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
			for _, other := range all {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Errorf("errors.Is(%v, %v) = true, want false", tt.err, other)
				}
			}
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := FileNotFound("upload", "/missing", os.ErrNotExist)
	wrapped := fmt.Errorf("generate: %w", inner)

	if KindOf(wrapped) != KindFileNotFound {
		t.Errorf("expected KindFileNotFound through wrapping, got %v", KindOf(wrapped))
	}
	if !errors.Is(wrapped, os.ErrNotExist) {
		t.Error("expected cause to remain reachable through Unwrap")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected KindUnknown for unclassified error")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Server("upload", 502, errors.New("bad gateway"))
	msg := err.Error()
	for _, want := range []string{"upload", "server error", "HTTP 502", "bad gateway"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestMessageOmitsOperation(t *testing.T) {
	err := fmt.Errorf("workflow: %w", Network("upload", errors.New("connection refused")))
	got := Message(err)
	if got != "network error: connection refused" {
		t.Errorf("Message() = %q", got)
	}
	if Message(errors.New("plain")) != "plain" {
		t.Error("expected plain errors to pass through")
	}
	if Message(nil) != "" {
		t.Error("expected empty message for nil")
	}
}
