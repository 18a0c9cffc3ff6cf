package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestError_IsKindAndCause(t *testing.T) {
	err := New(KindFileVanished, "a.json", fs.ErrNotExist)
	if !errors.Is(err, ErrFileVanished) {
		t.Error("expected errors.Is(err, ErrFileVanished)")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected errors.Is(err, fs.ErrNotExist)")
	}
	if errors.Is(err, ErrParseFailure) {
		t.Error("file vanished error should not match parse failure")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("service: list: %w", New(KindParseFailure, "bad.json", errors.New("boom")))
	if got := KindOf(err); got != KindParseFailure {
		t.Errorf("kind = %v, want %v", got, KindParseFailure)
	}
	if got := PathOf(err); got != "bad.json" {
		t.Errorf("path = %q, want bad.json", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("kind of plain error = %v, want unknown", got)
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindDirectoryUnreadable, "/data", errors.New("permission denied"))
	want := "directory_unreadable: /data: permission denied"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}
