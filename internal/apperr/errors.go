// Package apperr defines the error values shared across folio packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// Cache failure sentinels. An *Error matches exactly one of these via errors.Is.
var (
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	ErrFileVanished        = errors.New("file vanished")
	ErrFileUnreadable      = errors.New("file unreadable")
	ErrParseFailure        = errors.New("parse failure")
)

// Kind classifies a failure raised while refreshing a directory cache.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectoryUnreadable
	KindFileVanished
	KindFileUnreadable
	KindParseFailure
)

// String returns the snake_case name used in logs and API responses.
func (k Kind) String() string {
	switch k {
	case KindDirectoryUnreadable:
		return "directory_unreadable"
	case KindFileVanished:
		return "file_vanished"
	case KindFileUnreadable:
		return "file_unreadable"
	case KindParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindDirectoryUnreadable:
		return ErrDirectoryUnreadable
	case KindFileVanished:
		return ErrFileVanished
	case KindFileUnreadable:
		return ErrFileUnreadable
	case KindParseFailure:
		return ErrParseFailure
	default:
		return nil
	}
}

// Error is a typed cache failure. Path is the directory for
// KindDirectoryUnreadable and the offending file otherwise.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// New builds an *Error of the given kind.
func New(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	var out []error
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PathOf returns the path carried by err, or "".
func PathOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}
